package records

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/de-tools/compliance-atlas/pkg/adapters"
	"github.com/de-tools/compliance-atlas/pkg/models/api"
	staterecords "github.com/de-tools/compliance-atlas/pkg/store/records"
)

var accountIDPattern = regexp.MustCompile(`^[0-9]{12}$`)

type Handler struct {
	store staterecords.Store
}

func NewHandler(store staterecords.Store) *Handler {
	return &Handler{store: store}
}

func writeJSON(w http.ResponseWriter, status int, body any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(body)
}

func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)
	account := chi.URLParam(r, "account")

	if !accountIDPattern.MatchString(account) {
		_ = writeJSON(w, http.StatusBadRequest, api.Error{Message: "account must be a 12 digit AWS account id"})
		return
	}

	items, err := h.store.ListByAccount(ctx, account)
	if err != nil {
		logger.Error().
			Err(err).
			Str("account_id", account).
			Msg("failed to list records")

		status := http.StatusInternalServerError
		var incomplete *staterecords.IncompleteQueryError
		if errors.As(err, &incomplete) {
			status = http.StatusBadGateway
		}
		_ = writeJSON(w, status, api.Error{Message: "failed to list records"})
		return
	}

	response := make([]api.ComplianceRecord, 0, len(items))
	for i := range items {
		rec, err := adapters.MapStoreRecordToDomain(&items[i])
		if err != nil {
			logger.Warn().
				Err(err).
				Str("resource_id", items[i].ResourceID).
				Msg("skipping unreadable record")
			continue
		}
		response = append(response, adapters.MapRecordDomainToApi(*rec))
	}

	if err := writeJSON(w, http.StatusOK, response); err != nil {
		logger.Error().
			Err(err).
			Str("account_id", account).
			Msg("failed to encode records")
	}
}
