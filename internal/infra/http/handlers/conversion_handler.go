package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/vitalmed-app/clinica-automation/internal/entity"
	"github.com/vitalmed-app/clinica-automation/internal/infra/http/middleware"
	"github.com/vitalmed-app/clinica-automation/internal/usecase"
)

// ConversionProcessor é o contrato do motor exposto ao handler.
type ConversionProcessor interface {
	Execute(ctx context.Context, input usecase.ProcessConversionInput) (*entity.Lead, error)
}

type ConversionHandler struct {
	processor   ConversionProcessor
	rateLimiter *RateLimiter
}

func NewConversionHandler(processor ConversionProcessor) *ConversionHandler {
	return &ConversionHandler{
		processor:   processor,
		rateLimiter: NewRateLimiter(30, time.Minute), // 30 req/min por IP
	}
}

type ConversionResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Lead    *entity.Lead `json:"lead,omitempty"`
}

func (h *ConversionHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	clientIP := getClientIP(r)
	if !h.rateLimiter.Allow(clientIP) {
		writeJSON(w, http.StatusTooManyRequests, ConversionResponse{
			Success: false,
			Message: "Too many requests. Please try again later.",
		})
		return
	}

	var input usecase.ProcessConversionInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeJSON(w, http.StatusBadRequest, ConversionResponse{
			Success: false,
			Message: "Invalid JSON",
		})
		return
	}

	lead, err := h.processor.Execute(ctx, input)
	if err != nil {
		middleware.RecordConversion(input.ConversionID, "error")
		writeJSON(w, statusForError(err), ConversionResponse{
			Success: false,
			Message: err.Error(),
		})
		return
	}

	middleware.RecordConversion(input.ConversionID, "ok")
	writeJSON(w, http.StatusOK, ConversionResponse{
		Success: true,
		Lead:    lead,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// statusForError mapeia a taxonomia do motor para HTTP: validação 400,
// escrita recusada pelo banco 422, banco fora do ar 503.
func statusForError(err error) int {
	switch e := err.(type) {
	case *usecase.DomainError:
		if e.Code == usecase.CodeValidation {
			return http.StatusBadRequest
		}
		return http.StatusUnprocessableEntity
	case *usecase.TechnicalError:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}

type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    int
	window   time.Duration
}

type visitor struct {
	count     int
	lastReset time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		limit:    limit,
		window:   window,
	}

	go rl.cleanup()
	return rl
}

func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[ip]
	now := time.Now()

	if !exists {
		rl.visitors[ip] = &visitor{count: 1, lastReset: now}
		return true
	}

	if now.Sub(v.lastReset) > rl.window {
		v.count = 1
		v.lastReset = now
		return true
	}

	v.count++
	return v.count <= rl.limit
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		now := time.Now()
		for ip, v := range rl.visitors {
			if now.Sub(v.lastReset) > rl.window*2 {
				delete(rl.visitors, ip)
			}
		}
		rl.mu.Unlock()
	}
}
