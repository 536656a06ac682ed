package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vitalmed-app/clinica-automation/internal/entity"
	"github.com/vitalmed-app/clinica-automation/internal/infra/http/middleware"
	"github.com/vitalmed-app/clinica-automation/internal/usecase"
)

type TemplateHandler struct {
	repo usecase.TemplateRepositoryInterface
}

func NewTemplateHandler(repo usecase.TemplateRepositoryInterface) *TemplateHandler {
	return &TemplateHandler{repo: repo}
}

func (h *TemplateHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	templates, err := h.repo.List(r.Context())
	if err != nil {
		writeJSON(w, statusForError(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, templates)
}

func (h *TemplateHandler) HandleSave(w http.ResponseWriter, r *http.Request) {
	var template entity.Template
	if err := json.NewDecoder(r.Body).Decode(&template); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "JSON inválido: " + err.Error()})
		return
	}

	// Pré-condições checadas antes de qualquer ida ao banco
	if validationErrors := usecase.ValidateTemplate(&template); len(validationErrors) > 0 {
		middleware.RecordTemplateSave("validation_error")
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "validation failed",
			"fields": validationErrors,
		})
		return
	}

	saved, err := h.repo.Save(r.Context(), &template)
	if err != nil {
		middleware.RecordTemplateSave("error")
		// 503 orienta o usuário a checar a configuração da conexão;
		// 422 é o banco recusando o dado.
		writeJSON(w, statusForError(err), map[string]string{"error": err.Error()})
		return
	}

	middleware.RecordTemplateSave("ok")
	writeJSON(w, http.StatusOK, saved)
}

func (h *TemplateHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	deleted, err := h.repo.Delete(r.Context(), id)
	if err != nil {
		writeJSON(w, statusForError(err), map[string]string{"error": err.Error()})
		return
	}
	if !deleted {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "template not found"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
