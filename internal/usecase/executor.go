package usecase

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/vitalmed-app/clinica-automation/internal/entity"
)

// maxNestingDepth limita campanhas aninhadas via START_CAMPAIGN.
const maxNestingDepth = 5

// Executor interpreta os passos de uma campanha em ordem estrita, um por vez.
// A falha de um passo é registrada e NÃO interrompe os seguintes: nada adiante
// depende do sucesso de um passo além das chaves de contexto que ele produz.
type Executor struct {
	Templates TemplateRepositoryInterface
	Campaigns CampaignSource
	Email     EmailService
	WhatsApp  WhatsAppService
	Generator ContentGenerator
	Runs      RunScheduler          // opcional; nil degrada WAIT_DELAY para log-e-segue
	Stats     CampaignStatsRecorder // opcional
	Tags      TagRecorder           // opcional
}

func NewExecutor(
	templates TemplateRepositoryInterface,
	campaigns CampaignSource,
	email EmailService,
	whatsapp WhatsAppService,
	generator ContentGenerator,
	runs RunScheduler,
	stats CampaignStatsRecorder,
) *Executor {
	return &Executor{
		Templates: templates,
		Campaigns: campaigns,
		Email:     email,
		WhatsApp:  whatsapp,
		Generator: generator,
		Runs:      runs,
		Stats:     stats,
	}
}

// Execute roda a campanha do primeiro passo, com o contexto semeado pelo
// evento de conversão.
func (e *Executor) Execute(ctx context.Context, campaign *entity.Campaign, lead *entity.Lead, bag map[string]any, attachments []entity.Attachment) error {
	return e.run(ctx, campaign, lead, bag, attachments, nil, 0)
}

// Resume retoma uma execução suspensa por WAIT_DELAY no passo salvo.
// ancestors é a cadeia de campanhas acima desta no momento da suspensão;
// attachments são os anexos do evento original, vindos do snapshot.
func (e *Executor) Resume(ctx context.Context, campaign *entity.Campaign, lead *entity.Lead, bag map[string]any, attachments []entity.Attachment, ancestors []string, startStep int) error {
	return e.run(ctx, campaign, lead, bag, attachments, ancestors, startStep)
}

func (e *Executor) run(ctx context.Context, c *entity.Campaign, lead *entity.Lead, bag map[string]any, attachments []entity.Attachment, ancestors []string, startStep int) error {
	for _, id := range ancestors {
		if id == c.ID {
			log.Printf("🔁 Campanha %s já está na cadeia de execução, aninhamento rejeitado (lead %s)", c.ID, lead.ID)
			return &DomainError{Code: CodeCampaignLoop, Message: fmt.Sprintf("campaign %s nests itself", c.ID)}
		}
	}
	if len(ancestors) >= maxNestingDepth {
		log.Printf("🔁 Profundidade máxima de aninhamento atingida na campanha %s (lead %s)", c.ID, lead.ID)
		return &DomainError{Code: CodeCampaignLoop, Message: "max campaign nesting depth reached"}
	}

	if bag == nil {
		bag = make(map[string]any)
	}
	chain := append(append([]string{}, ancestors...), c.ID)

	if startStep == 0 {
		e.recordStats(ctx, c.ID, 1, 0)
	}

	for i := startStep; i < len(c.Steps); i++ {
		step := c.Steps[i]

		if step.Kind == entity.StepWaitDelay {
			if e.suspend(ctx, c, step, lead, bag, attachments, ancestors, i+1) {
				return nil
			}
			// Sem agendador disponível: comportamento de referência, loga e segue.
			log.Printf("⏳ Delay de %dmin da campanha %s ignorado em processo (lead %s)", step.Config.DelayMinutes, c.ID, lead.ID)
			continue
		}

		if err := e.safeRunStep(ctx, step, lead, bag, attachments, chain); err != nil {
			log.Printf("⚠️ Passo %s (%s) da campanha %s falhou para lead %s: %v", step.ID, step.Kind, c.ID, lead.ID, err)
		}
	}

	e.recordStats(ctx, c.ID, 0, 1)
	return nil
}

// safeRunStep é o limite de isolamento do passo: erro OU panic de um
// colaborador vira falha logada, nunca aborta o restante do run.
func (e *Executor) safeRunStep(ctx context.Context, step entity.Step, lead *entity.Lead, bag map[string]any, attachments []entity.Attachment, chain []string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return e.runStep(ctx, step, lead, bag, attachments, chain)
}

func (e *Executor) runStep(ctx context.Context, step entity.Step, lead *entity.Lead, bag map[string]any, attachments []entity.Attachment, chain []string) error {
	switch step.Kind {
	case entity.StepAddTag:
		// Tags são informativas neste subsistema; não alteram o lead.
		if e.Tags != nil {
			if err := e.Tags.RecordTag(ctx, lead.ID, step.Config.Tag); err != nil {
				return fmt.Errorf("record tag: %w", err)
			}
		}
		log.Printf("🏷️ Tag %q registrada para lead %s", step.Config.Tag, lead.ID)
		return nil

	case entity.StepAIGenerate:
		prompt := RenderTemplate(step.Config.Prompt, lead, bag)
		content, err := e.generate(ctx, prompt)
		if err != nil || content == "" {
			log.Printf("🤖 Geração de conteúdo falhou (%v), usando fallback estático", err)
			content = e.fallbackContent(lead, bag)
		}
		bag[entity.ContextKeyAIContent] = content
		return nil

	case entity.StepSendEmail:
		tpl := e.resolveTemplate(ctx, step.Config.TemplateID)
		if tpl == nil {
			log.Printf("⚠️ Template %s não encontrado, envio de email ignorado (lead %s)", step.Config.TemplateID, lead.ID)
			return nil
		}
		if e.Email == nil || lead.Email == "" {
			log.Printf("⚠️ Canal de email indisponível, envio ignorado (lead %s)", lead.ID)
			return nil
		}
		subject := RenderTemplate(tpl.Subject, lead, bag)
		body := RenderTemplate(tpl.Content, lead, bag)
		result, err := e.Email.Send(lead.Email, subject, body, attachments)
		if err != nil {
			return fmt.Errorf("email delivery: %w", err)
		}
		log.Printf("📧 Email %q enviado para %s", tpl.Name, result.To)
		return nil

	case entity.StepSendWhatsApp:
		tpl := e.resolveTemplate(ctx, step.Config.TemplateID)
		if tpl == nil {
			log.Printf("⚠️ Template %s não encontrado, envio de WhatsApp ignorado (lead %s)", step.Config.TemplateID, lead.ID)
			return nil
		}
		if e.WhatsApp == nil || lead.Phone == "" {
			log.Printf("⚠️ Canal de WhatsApp indisponível ou lead sem telefone, envio ignorado (lead %s)", lead.ID)
			return nil
		}
		body := RenderTemplate(tpl.Content, lead, bag)
		// Conteúdo gerado por IA no mesmo run substitui o corpo do template,
		// mas só no canal de WhatsApp.
		if step.Config.UseAIContent || tpl.IsAIPowered {
			if ai, ok := bag[entity.ContextKeyAIContent].(string); ok && ai != "" {
				body = ai
			}
		}
		result, err := e.WhatsApp.Send(lead.Phone, body)
		if err != nil {
			return fmt.Errorf("whatsapp delivery: %w", err)
		}
		log.Printf("💬 WhatsApp %q enviado para %s", tpl.Name, result.To)
		return nil

	case entity.StepStartCampaign:
		if e.Campaigns == nil {
			return fmt.Errorf("no campaign source configured")
		}
		nested, err := e.Campaigns.FindByID(ctx, step.Config.CampaignID)
		if err != nil {
			return fmt.Errorf("nested campaign %s: %w", step.Config.CampaignID, err)
		}
		return e.run(ctx, nested, lead, bag, attachments, chain, 0)

	case entity.StepWaitDelay:
		// Tratado no loop principal; aqui nunca chega.
		return nil
	}

	return fmt.Errorf("unknown step kind %q", step.Kind)
}

// suspend persiste o run para retomada futura. Retorna false quando não há
// agendador ou o agendamento falhou, e o chamador segue em processo.
func (e *Executor) suspend(ctx context.Context, c *entity.Campaign, step entity.Step, lead *entity.Lead, bag map[string]any, attachments []entity.Attachment, ancestors []string, nextStep int) bool {
	if e.Runs == nil {
		return false
	}

	run := &entity.AutomationRun{
		ID:          uuid.New().String(),
		CampaignID:  c.ID,
		Lead:        *lead,
		Context:     bag,
		Attachments: attachments,
		Chain:       ancestors,
		NextStep:    nextStep,
		ResumeAt:    time.Now().Add(time.Duration(step.Config.DelayMinutes) * time.Minute),
		Status:      entity.RunStatusWaiting,
		CreatedAt:   time.Now(),
	}

	if err := e.Runs.Schedule(ctx, run); err != nil {
		log.Printf("⚠️ Falha ao agendar retomada do run (campanha %s, lead %s): %v", c.ID, lead.ID, err)
		return false
	}

	log.Printf("⏸️ Run %s suspenso até %s (campanha %s, próximo passo %d)", run.ID, run.ResumeAt.Format(time.RFC3339), c.ID, nextStep)
	return true
}

func (e *Executor) generate(ctx context.Context, prompt string) (string, error) {
	if e.Generator == nil {
		return "", fmt.Errorf("no content generator configured")
	}
	return e.Generator.Generate(ctx, prompt)
}

func (e *Executor) fallbackContent(lead *entity.Lead, bag map[string]any) string {
	if revenue, ok := LookupNumber(bag, "calculator.results.potentialRevenue"); ok {
		return fmt.Sprintf("Olá %s! Com base na sua calculadora, sua clínica pode faturar até %s por mês. Vamos conversar?",
			lead.Name, FormatBRL(revenue))
	}
	return fmt.Sprintf("Olá %s! Preparei uma análise para a sua clínica. Posso te mostrar?", lead.Name)
}

func (e *Executor) resolveTemplate(ctx context.Context, id string) *entity.Template {
	if e.Templates == nil || id == "" {
		return nil
	}
	tpl, err := e.Templates.FindByID(ctx, id)
	if err != nil {
		return nil
	}
	return tpl
}

// Estatísticas são melhor-esforço: falha aqui não afeta o run.
func (e *Executor) recordStats(ctx context.Context, campaignID string, enrolled, completed int) {
	if e.Stats == nil {
		return
	}
	if err := e.Stats.IncrementStats(ctx, campaignID, enrolled, completed); err != nil {
		log.Printf("⚠️ Falha ao atualizar estatísticas da campanha %s: %v", campaignID, err)
	}
}
