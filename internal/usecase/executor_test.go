package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitalmed-app/clinica-automation/internal/entity"
)

func testLead() *entity.Lead {
	return &entity.Lead{
		ID:    "lead-1",
		Name:  "Ana",
		Email: "a@b.com",
		Phone: "5511988887777",
		Stage: entity.StageNovo,
	}
}

// A falha do passo k não impede os passos k+1..n.
func TestExecutorStepFailureDoesNotAbortRun(t *testing.T) {
	ctx := context.Background()
	trace := &stepTrace{}
	email := &fakeEmail{err: errors.New("smtp down")}
	whatsapp := &fakeWhatsApp{trace: trace}
	tags := &fakeTags{trace: trace}
	templates := newFakeTemplateRepo(SystemTemplates()...)

	executor := NewExecutor(templates, nil, email, whatsapp, nil, nil, nil)
	executor.Tags = tags

	campaign := &entity.Campaign{
		ID:     "c1",
		Name:   "Teste",
		Status: entity.CampaignStatusActive,
		Steps: []entity.Step{
			{ID: "s1", Kind: entity.StepSendEmail, Config: entity.StepConfig{TemplateID: TemplateWelcomeEmail}},
			{ID: "s2", Kind: entity.StepAddTag, Config: entity.StepConfig{Tag: "depois-da-falha"}},
			{ID: "s3", Kind: entity.StepSendWhatsApp, Config: entity.StepConfig{TemplateID: TemplateWhatsAppFollowup}},
		},
	}

	err := executor.Execute(ctx, campaign, testLead(), nil, nil)

	require.NoError(t, err)
	assert.Equal(t, []string{"ADD_TAG", "SEND_WHATSAPP"}, trace.order)
	assert.Equal(t, []string{"depois-da-falha"}, tags.tags)
}

type panickingGenerator struct{}

func (panickingGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	panic("llm client bug")
}

// Panic de um colaborador é contido no limite do passo, igual a um erro:
// os passos seguintes ainda executam.
func TestExecutorStepPanicDoesNotAbortRun(t *testing.T) {
	ctx := context.Background()
	tags := &fakeTags{}
	whatsapp := &fakeWhatsApp{}
	templates := newFakeTemplateRepo(SystemTemplates()...)

	executor := NewExecutor(templates, nil, nil, whatsapp, panickingGenerator{}, nil, nil)
	executor.Tags = tags

	campaign := &entity.Campaign{
		ID:     "c1",
		Status: entity.CampaignStatusActive,
		Steps: []entity.Step{
			{ID: "s1", Kind: entity.StepAIGenerate, Config: entity.StepConfig{Prompt: "oi {{name}}"}},
			{ID: "s2", Kind: entity.StepAddTag, Config: entity.StepConfig{Tag: "sobreviveu-ao-panic"}},
			{ID: "s3", Kind: entity.StepSendWhatsApp, Config: entity.StepConfig{TemplateID: TemplateWhatsAppFollowup}},
		},
	}

	require.NotPanics(t, func() {
		err := executor.Execute(ctx, campaign, testLead(), nil, nil)
		require.NoError(t, err)
	})

	assert.Equal(t, []string{"sobreviveu-ao-panic"}, tags.tags)
	assert.Len(t, whatsapp.sent, 1)
}

// Referência a template apagado não derruba o run: o envio é pulado.
func TestExecutorDanglingTemplateSkipsSend(t *testing.T) {
	ctx := context.Background()
	trace := &stepTrace{}
	email := &fakeEmail{trace: trace}
	tags := &fakeTags{trace: trace}

	executor := NewExecutor(newFakeTemplateRepo(), nil, email, nil, nil, nil, nil)
	executor.Tags = tags

	campaign := &entity.Campaign{
		ID:     "c1",
		Status: entity.CampaignStatusActive,
		Steps: []entity.Step{
			{ID: "s1", Kind: entity.StepSendEmail, Config: entity.StepConfig{TemplateID: "apagado-ha-tempos"}},
			{ID: "s2", Kind: entity.StepAddTag, Config: entity.StepConfig{Tag: "sobreviveu"}},
		},
	}

	err := executor.Execute(ctx, campaign, testLead(), nil, nil)

	require.NoError(t, err)
	assert.Empty(t, email.sent)
	assert.Equal(t, []string{"ADD_TAG"}, trace.order)
}

// Campanha que se aninha (direta ou transitivamente) termina e não re-executa.
func TestExecutorRecursionGuard(t *testing.T) {
	ctx := context.Background()
	tags := &fakeTags{}

	self := entity.Campaign{
		ID:     "loop",
		Status: entity.CampaignStatusActive,
		Steps: []entity.Step{
			{ID: "s1", Kind: entity.StepAddTag, Config: entity.StepConfig{Tag: "antes"}},
			{ID: "s2", Kind: entity.StepStartCampaign, Config: entity.StepConfig{CampaignID: "loop"}},
			{ID: "s3", Kind: entity.StepAddTag, Config: entity.StepConfig{Tag: "depois"}},
		},
	}
	repo := newFakeCampaignRepo(self)

	executor := NewExecutor(newFakeTemplateRepo(), repo, nil, nil, nil, nil, nil)
	executor.Tags = tags

	err := executor.Execute(ctx, &self, testLead(), nil, nil)

	require.NoError(t, err)
	// Cada tag executou exatamente uma vez: o aninhamento foi rejeitado e
	// o run seguiu para o passo seguinte.
	assert.Equal(t, []string{"antes", "depois"}, tags.tags)
}

func TestExecutorTransitiveRecursionGuard(t *testing.T) {
	ctx := context.Background()
	tags := &fakeTags{}

	a := entity.Campaign{
		ID:     "a",
		Status: entity.CampaignStatusActive,
		Steps: []entity.Step{
			{ID: "a1", Kind: entity.StepAddTag, Config: entity.StepConfig{Tag: "a"}},
			{ID: "a2", Kind: entity.StepStartCampaign, Config: entity.StepConfig{CampaignID: "b"}},
		},
	}
	b := entity.Campaign{
		ID:     "b",
		Status: entity.CampaignStatusActive,
		Steps: []entity.Step{
			{ID: "b1", Kind: entity.StepAddTag, Config: entity.StepConfig{Tag: "b"}},
			{ID: "b2", Kind: entity.StepStartCampaign, Config: entity.StepConfig{CampaignID: "a"}},
		},
	}
	repo := newFakeCampaignRepo(a, b)

	executor := NewExecutor(newFakeTemplateRepo(), repo, nil, nil, nil, nil, nil)
	executor.Tags = tags

	err := executor.Execute(ctx, &a, testLead(), nil, nil)

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, tags.tags)
}

// WAIT_DELAY com agendador disponível suspende o run de forma durável:
// os passos seguintes só rodam na retomada.
func TestExecutorWaitDelaySuspendsAndResumes(t *testing.T) {
	ctx := context.Background()
	tags := &fakeTags{}
	runs := newFakeRunRepo()

	campaign := entity.Campaign{
		ID:     "c1",
		Status: entity.CampaignStatusActive,
		Steps: []entity.Step{
			{ID: "s1", Kind: entity.StepAddTag, Config: entity.StepConfig{Tag: "antes-do-delay"}},
			{ID: "s2", Kind: entity.StepWaitDelay, Config: entity.StepConfig{DelayMinutes: 30}},
			{ID: "s3", Kind: entity.StepAddTag, Config: entity.StepConfig{Tag: "depois-do-delay"}},
		},
	}
	repo := newFakeCampaignRepo(campaign)

	executor := NewExecutor(newFakeTemplateRepo(), repo, nil, nil, nil, runs, nil)
	executor.Tags = tags

	bag := map[string]any{"seed": "value"}
	err := executor.Execute(ctx, &campaign, testLead(), bag, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"antes-do-delay"}, tags.tags)
	require.Len(t, runs.scheduled, 1)

	run := runs.scheduled[0]
	assert.Equal(t, "c1", run.CampaignID)
	assert.Equal(t, 2, run.NextStep)
	assert.Equal(t, entity.RunStatusWaiting, run.Status)
	assert.Equal(t, "value", run.Context["seed"])
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), run.ResumeAt, 5*time.Second)

	// Retomada: roda só o passo salvo em diante e marca o run concluído.
	resumeUC := NewResumeRunUseCase(repo, executor, runs)
	require.NoError(t, resumeUC.Execute(ctx, *run))

	assert.Equal(t, []string{"antes-do-delay", "depois-do-delay"}, tags.tags)
	assert.Equal(t, []string{run.ID}, runs.completed)
}

// Os anexos do evento fazem parte do snapshot durável: um email agendado
// para depois do delay ainda sai com o PDF da conversão.
func TestExecutorWaitDelayPreservesAttachments(t *testing.T) {
	ctx := context.Background()
	email := &fakeEmail{}
	runs := newFakeRunRepo()
	templates := newFakeTemplateRepo(SystemTemplates()...)

	campaign := entity.Campaign{
		ID:     "c1",
		Status: entity.CampaignStatusActive,
		Steps: []entity.Step{
			{ID: "s1", Kind: entity.StepWaitDelay, Config: entity.StepConfig{DelayMinutes: 60}},
			{ID: "s2", Kind: entity.StepSendEmail, Config: entity.StepConfig{TemplateID: TemplateRevenueReport}},
		},
	}
	repo := newFakeCampaignRepo(campaign)

	executor := NewExecutor(templates, repo, email, nil, nil, runs, nil)

	pdf := entity.Attachment{
		Filename:    "relatorio-faturamento.pdf",
		ContentType: "application/pdf",
		Content:     []byte("%PDF-1.4"),
	}
	require.NoError(t, executor.Execute(ctx, &campaign, testLead(), nil, []entity.Attachment{pdf}))

	require.Len(t, runs.scheduled, 1)
	run := runs.scheduled[0]
	require.Len(t, run.Attachments, 1)
	assert.Equal(t, "relatorio-faturamento.pdf", run.Attachments[0].Filename)
	assert.Empty(t, email.sent, "email só sai depois do delay")

	resumeUC := NewResumeRunUseCase(repo, executor, runs)
	require.NoError(t, resumeUC.Execute(ctx, *run))

	require.Len(t, email.sent, 1)
	require.Len(t, email.sent[0].Attachments, 1)
	assert.Equal(t, pdf.Content, email.sent[0].Attachments[0].Content)
}

// Sem agendador, o delay degrada para o comportamento de referência.
func TestExecutorWaitDelayWithoutSchedulerContinuesInline(t *testing.T) {
	ctx := context.Background()
	tags := &fakeTags{}

	campaign := entity.Campaign{
		ID:     "c1",
		Status: entity.CampaignStatusActive,
		Steps: []entity.Step{
			{ID: "s1", Kind: entity.StepWaitDelay, Config: entity.StepConfig{DelayMinutes: 120}},
			{ID: "s2", Kind: entity.StepAddTag, Config: entity.StepConfig{Tag: "imediato"}},
		},
	}

	executor := NewExecutor(newFakeTemplateRepo(), nil, nil, nil, nil, nil, nil)
	executor.Tags = tags

	start := time.Now()
	err := executor.Execute(ctx, &campaign, testLead(), nil, nil)

	require.NoError(t, err)
	assert.Equal(t, []string{"imediato"}, tags.tags)
	assert.Less(t, time.Since(start), time.Second, "delay não bloqueia o processo")
}

// Conteúdo de IA gerado num passo anterior flui pelo contexto e substitui o
// corpo do template só no WhatsApp; o email mantém o template.
func TestExecutorAIContentOverridesWhatsAppOnly(t *testing.T) {
	ctx := context.Background()
	email := &fakeEmail{}
	whatsapp := &fakeWhatsApp{}
	generator := &fakeGenerator{out: "mensagem gerada pela IA"}
	templates := newFakeTemplateRepo(
		entity.Template{ID: "tpl-email", Name: "Email", Channel: entity.ChannelEmail, Subject: "Oi", Content: "corpo estático"},
		entity.Template{ID: "tpl-wa", Name: "WA", Channel: entity.ChannelWhatsApp, Content: "corpo estático"},
	)

	executor := NewExecutor(templates, nil, email, whatsapp, generator, nil, nil)

	campaign := &entity.Campaign{
		ID:     "c1",
		Status: entity.CampaignStatusActive,
		Steps: []entity.Step{
			{ID: "s1", Kind: entity.StepAIGenerate, Config: entity.StepConfig{Prompt: "escreva algo para {{name}}"}},
			{ID: "s2", Kind: entity.StepSendEmail, Config: entity.StepConfig{TemplateID: "tpl-email", UseAIContent: true}},
			{ID: "s3", Kind: entity.StepSendWhatsApp, Config: entity.StepConfig{TemplateID: "tpl-wa", UseAIContent: true}},
		},
	}

	err := executor.Execute(ctx, campaign, testLead(), nil, nil)
	require.NoError(t, err)

	require.Len(t, generator.prompts, 1)
	assert.Equal(t, "escreva algo para Ana", generator.prompts[0])

	require.Len(t, email.sent, 1)
	assert.Equal(t, "corpo estático", email.sent[0].Body)

	require.Len(t, whatsapp.sent, 1)
	assert.Equal(t, "mensagem gerada pela IA", whatsapp.sent[0].Body)
}

func TestExecutorRecordsCampaignStats(t *testing.T) {
	ctx := context.Background()
	repo := newFakeCampaignRepo()

	campaign := &entity.Campaign{
		ID:     "c1",
		Status: entity.CampaignStatusActive,
		Steps: []entity.Step{
			{ID: "s1", Kind: entity.StepAddTag, Config: entity.StepConfig{Tag: "x"}},
		},
	}

	executor := NewExecutor(newFakeTemplateRepo(), nil, nil, nil, nil, nil, repo)
	require.NoError(t, executor.Execute(ctx, campaign, testLead(), nil, nil))

	assert.Equal(t, [2]int{1, 1}, repo.stats["c1"])
}
