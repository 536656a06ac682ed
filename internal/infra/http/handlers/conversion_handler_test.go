package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vitalmed-app/clinica-automation/internal/entity"
	"github.com/vitalmed-app/clinica-automation/internal/usecase"
)

type MockConversionProcessor struct {
	mock.Mock
}

func (m *MockConversionProcessor) Execute(ctx context.Context, input usecase.ProcessConversionInput) (*entity.Lead, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Lead), args.Error(1)
}

func postConversion(t *testing.T, handler *ConversionHandler, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/conversions", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.Handle(rec, req)
	return rec
}

func TestConversionHandlerSuccess(t *testing.T) {
	processor := new(MockConversionProcessor)
	lead := &entity.Lead{ID: "lead-1", Email: "a@b.com", Stage: entity.StageNovo}
	processor.On("Execute", mock.Anything, mock.MatchedBy(func(in usecase.ProcessConversionInput) bool {
		return in.ConversionID == "REVENUE_CALCULATOR" && in.Lead.Email == "a@b.com"
	})).Return(lead, nil)

	handler := NewConversionHandler(processor)

	body, _ := json.Marshal(map[string]any{
		"conversion_id": "REVENUE_CALCULATOR",
		"lead":          map[string]any{"email": "a@b.com", "name": "Ana"},
		"context": map[string]any{
			"calculator": map[string]any{"results": map[string]any{"potentialRevenue": 50000}},
		},
	})
	rec := postConversion(t, handler, body)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp ConversionResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Lead)
	assert.Equal(t, "lead-1", resp.Lead.ID)
	processor.AssertExpectations(t)
}

func TestConversionHandlerInvalidJSON(t *testing.T) {
	processor := new(MockConversionProcessor)
	handler := NewConversionHandler(processor)

	rec := postConversion(t, handler, []byte(`{"conversion_id":`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	processor.AssertNotCalled(t, "Execute")
}

func TestConversionHandlerErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{
			"validação vira 400",
			&usecase.DomainError{Code: usecase.CodeValidation, Message: "conversion_id is required"},
			http.StatusBadRequest,
		},
		{
			"escrita recusada vira 422",
			&usecase.DomainError{Code: usecase.CodePersistenceRejected, Message: "duplicate key"},
			http.StatusUnprocessableEntity,
		},
		{
			"banco fora vira 503",
			&usecase.TechnicalError{Code: usecase.CodePersistenceUnavailable, Message: "connection refused"},
			http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			processor := new(MockConversionProcessor)
			processor.On("Execute", mock.Anything, mock.Anything).Return(nil, tt.err)

			handler := NewConversionHandler(processor)
			body, _ := json.Marshal(map[string]any{
				"conversion_id": "LEAD_CREATED",
				"lead":          map[string]any{"email": "x@y.com"},
			})
			rec := postConversion(t, handler, body)

			assert.Equal(t, tt.wantStatus, rec.Code)

			var resp ConversionResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.False(t, resp.Success)
			assert.NotEmpty(t, resp.Message)
		})
	}
}

func TestConversionHandlerRateLimit(t *testing.T) {
	processor := new(MockConversionProcessor)
	processor.On("Execute", mock.Anything, mock.Anything).
		Return(&entity.Lead{ID: "lead-1"}, nil)

	handler := NewConversionHandler(processor)
	body, _ := json.Marshal(map[string]any{
		"conversion_id": "LEAD_CREATED",
		"lead":          map[string]any{"email": "x@y.com"},
	})

	var last int
	for i := 0; i < 31; i++ {
		last = postConversion(t, handler, body).Code
	}

	assert.Equal(t, http.StatusTooManyRequests, last)
}
