package entity

import "time"

// Status de uma execução suspensa aguardando retomada.
const (
	RunStatusWaiting    = "WAITING"
	RunStatusProcessing = "PROCESSING"
	RunStatusCompleted  = "COMPLETED"
	RunStatusFailed     = "FAILED"
)

// AutomationRun é o snapshot durável de uma execução suspensa por um passo
// WAIT_DELAY. Guarda o lead, o contexto e o índice do próximo passo para que
// o worker retome exatamente de onde parou, mesmo depois de um restart.
type AutomationRun struct {
	ID          string         `json:"id"`
	CampaignID  string         `json:"campaign_id"`
	Lead        Lead           `json:"lead"`
	Context     map[string]any `json:"context,omitempty"`
	Attachments []Attachment   `json:"attachments,omitempty"`
	Chain       []string       `json:"chain,omitempty"` // campanhas já visitadas (guarda de recursão)
	NextStep    int            `json:"next_step"`
	ResumeAt    time.Time      `json:"resume_at"`
	Status      string         `json:"status"`
	LastError   string         `json:"last_error,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}
