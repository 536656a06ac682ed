package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/vitalmed-app/clinica-automation/internal/entity"
	"github.com/vitalmed-app/clinica-automation/internal/infra/http/middleware"
	"github.com/vitalmed-app/clinica-automation/internal/usecase"
)

type CampaignHandler struct {
	source usecase.CampaignSource
	repo   usecase.CampaignRepositoryInterface
}

func NewCampaignHandler(source usecase.CampaignSource, repo usecase.CampaignRepositoryInterface) *CampaignHandler {
	return &CampaignHandler{
		source: source,
		repo:   repo,
	}
}

// HandleList nunca devolve erro por banco fora: a fonte cai para as
// campanhas padrão.
func (h *CampaignHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	campaigns, err := h.source.List(r.Context())
	if err != nil {
		writeJSON(w, statusForError(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, campaigns)
}

func (h *CampaignHandler) HandleSave(w http.ResponseWriter, r *http.Request) {
	var campaign entity.Campaign
	if err := json.NewDecoder(r.Body).Decode(&campaign); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "JSON inválido: " + err.Error()})
		return
	}

	if validationErrors := usecase.ValidateCampaign(&campaign); len(validationErrors) > 0 {
		middleware.RecordCampaignSave("validation_error")
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "validation failed",
			"fields": validationErrors,
		})
		return
	}

	saved, err := h.repo.Save(r.Context(), &campaign)
	if err != nil {
		middleware.RecordCampaignSave("error")
		writeJSON(w, statusForError(err), map[string]string{"error": err.Error()})
		return
	}

	middleware.RecordCampaignSave("ok")
	writeJSON(w, http.StatusOK, saved)
}
