package usecase

import (
	"context"
	"time"

	"github.com/vitalmed-app/clinica-automation/internal/entity"
)

// stepTrace registra a ordem observável dos passos executados.
type stepTrace struct {
	order []string
}

func (t *stepTrace) record(kind string) {
	t.order = append(t.order, kind)
}

type fakeLeadRepo struct {
	leads     map[string]*entity.Lead
	findErr   error
	upsertErr error
}

func newFakeLeadRepo() *fakeLeadRepo {
	return &fakeLeadRepo{leads: make(map[string]*entity.Lead)}
}

func (f *fakeLeadRepo) FindByEmail(ctx context.Context, email string) (*entity.Lead, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	lead, ok := f.leads[email]
	if !ok {
		return nil, entity.ErrLeadNotFound
	}
	clone := *lead
	clone.Metadata = make(map[string]any, len(lead.Metadata))
	for k, v := range lead.Metadata {
		clone.Metadata[k] = v
	}
	return &clone, nil
}

func (f *fakeLeadRepo) Upsert(ctx context.Context, lead *entity.Lead) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	clone := *lead
	f.leads[lead.Email] = &clone
	return nil
}

type fakeTemplateRepo struct {
	templates map[string]*entity.Template
	err       error
}

func newFakeTemplateRepo(templates ...entity.Template) *fakeTemplateRepo {
	repo := &fakeTemplateRepo{templates: make(map[string]*entity.Template)}
	for i := range templates {
		repo.templates[templates[i].ID] = &templates[i]
	}
	return repo
}

func (f *fakeTemplateRepo) List(ctx context.Context) ([]entity.Template, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []entity.Template
	for _, t := range f.templates {
		out = append(out, *t)
	}
	return out, nil
}

func (f *fakeTemplateRepo) FindByID(ctx context.Context, id string) (*entity.Template, error) {
	if f.err != nil {
		return nil, f.err
	}
	t, ok := f.templates[id]
	if !ok {
		return nil, entity.ErrTemplateNotFound
	}
	return t, nil
}

func (f *fakeTemplateRepo) Save(ctx context.Context, t *entity.Template) (*entity.Template, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.templates[t.ID] = t
	return t, nil
}

func (f *fakeTemplateRepo) Delete(ctx context.Context, id string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	_, ok := f.templates[id]
	delete(f.templates, id)
	return ok, nil
}

type sentEmail struct {
	To          string
	Subject     string
	Body        string
	Attachments []entity.Attachment
}

type fakeEmail struct {
	trace *stepTrace
	sent  []sentEmail
	err   error
}

func (f *fakeEmail) Send(to, subject, body string, attachments []entity.Attachment) (*entity.DeliveryResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.trace != nil {
		f.trace.record("SEND_EMAIL")
	}
	f.sent = append(f.sent, sentEmail{To: to, Subject: subject, Body: body, Attachments: attachments})
	return &entity.DeliveryResult{Channel: entity.ChannelEmail, To: to, SentAt: time.Now()}, nil
}

type sentWhatsApp struct {
	To   string
	Body string
}

type fakeWhatsApp struct {
	trace *stepTrace
	sent  []sentWhatsApp
	err   error
}

func (f *fakeWhatsApp) Send(to, body string) (*entity.DeliveryResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.trace != nil {
		f.trace.record("SEND_WHATSAPP")
	}
	f.sent = append(f.sent, sentWhatsApp{To: to, Body: body})
	return &entity.DeliveryResult{Channel: entity.ChannelWhatsApp, To: to, SentAt: time.Now()}, nil
}

type fakeGenerator struct {
	trace   *stepTrace
	out     string
	err     error
	prompts []string
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.trace != nil {
		f.trace.record("AI_GENERATE_CONTENT")
	}
	return f.out, f.err
}

type fakeTags struct {
	trace *stepTrace
	tags  []string
	err   error
}

func (f *fakeTags) RecordTag(ctx context.Context, leadID, tag string) error {
	if f.err != nil {
		return f.err
	}
	if f.trace != nil {
		f.trace.record("ADD_TAG")
	}
	f.tags = append(f.tags, tag)
	return nil
}

type fakeRunRepo struct {
	scheduled   []*entity.AutomationRun
	scheduleErr error
	completed   []string
	failed      map[string]string
	released    []string
}

func newFakeRunRepo() *fakeRunRepo {
	return &fakeRunRepo{failed: make(map[string]string)}
}

func (f *fakeRunRepo) Schedule(ctx context.Context, run *entity.AutomationRun) error {
	if f.scheduleErr != nil {
		return f.scheduleErr
	}
	f.scheduled = append(f.scheduled, run)
	return nil
}

func (f *fakeRunRepo) ClaimDue(ctx context.Context, limit int) ([]entity.AutomationRun, error) {
	var due []entity.AutomationRun
	for _, run := range f.scheduled {
		if !run.ResumeAt.After(time.Now()) && len(due) < limit {
			due = append(due, *run)
		}
	}
	return due, nil
}

func (f *fakeRunRepo) Release(ctx context.Context, id string) error {
	f.released = append(f.released, id)
	return nil
}

func (f *fakeRunRepo) MarkCompleted(ctx context.Context, id string) error {
	f.completed = append(f.completed, id)
	return nil
}

func (f *fakeRunRepo) MarkFailed(ctx context.Context, id, reason string) error {
	f.failed[id] = reason
	return nil
}

type fakeCampaignRepo struct {
	campaigns []entity.Campaign
	listErr   error
	saved     []*entity.Campaign
	stats     map[string][2]int
}

func newFakeCampaignRepo(campaigns ...entity.Campaign) *fakeCampaignRepo {
	return &fakeCampaignRepo{campaigns: campaigns, stats: make(map[string][2]int)}
}

func (f *fakeCampaignRepo) List(ctx context.Context) ([]entity.Campaign, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.campaigns, nil
}

func (f *fakeCampaignRepo) FindByID(ctx context.Context, id string) (*entity.Campaign, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	for i := range f.campaigns {
		if f.campaigns[i].ID == id {
			return &f.campaigns[i], nil
		}
	}
	return nil, entity.ErrCampaignNotFound
}

func (f *fakeCampaignRepo) Save(ctx context.Context, c *entity.Campaign) (*entity.Campaign, error) {
	f.saved = append(f.saved, c)
	return c, nil
}

func (f *fakeCampaignRepo) IncrementStats(ctx context.Context, id string, enrolled, completed int) error {
	current := f.stats[id]
	f.stats[id] = [2]int{current[0] + enrolled, current[1] + completed}
	return nil
}
