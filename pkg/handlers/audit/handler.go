package audit

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/de-tools/compliance-atlas/pkg/adapters"
	"github.com/de-tools/compliance-atlas/pkg/models/api"
	"github.com/de-tools/compliance-atlas/pkg/models/domain"
	auditsvc "github.com/de-tools/compliance-atlas/pkg/services/audit"
)

type AccountAuditor interface {
	AuditAccount(ctx context.Context, payload domain.InvocationPayload) (domain.AuditSummary, error)
}

type Handler struct {
	auditor AccountAuditor
}

func NewHandler(auditor AccountAuditor) *Handler {
	return &Handler{auditor: auditor}
}

type auditRequest struct {
	AccountName string `json:"accountName"`
}

func writeJSON(w http.ResponseWriter, status int, body any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(body)
}

// AuditAccount runs one pass synchronously and returns its summary. The body
// is optional and only carries the account name.
func (h *Handler) AuditAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)
	account := chi.URLParam(r, "account")

	var req auditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		_ = writeJSON(w, http.StatusBadRequest, api.Error{Message: "invalid request body"})
		return
	}

	// The pass outlives a disconnecting client.
	summary, err := h.auditor.AuditAccount(context.WithoutCancel(ctx), domain.InvocationPayload{
		AccountID:   account,
		AccountName: req.AccountName,
	})
	switch {
	case errors.Is(err, auditsvc.ErrOrchestrationInvocation):
		_ = writeJSON(w, http.StatusBadRequest, api.Error{Message: err.Error()})
		return
	case errors.Is(err, auditsvc.ErrIdentityMismatch):
		_ = writeJSON(w, http.StatusConflict, api.Error{Message: err.Error()})
		return
	case err != nil:
		logger.Error().
			Err(err).
			Str("account_id", account).
			Msg("account pass failed")
		_ = writeJSON(w, http.StatusBadGateway, api.Error{Message: "account pass failed"})
		return
	}

	if err := writeJSON(w, http.StatusOK, adapters.MapAuditSummaryDomainToApi(summary)); err != nil {
		logger.Error().
			Err(err).
			Str("account_id", account).
			Msg("failed to encode audit summary")
	}
}
