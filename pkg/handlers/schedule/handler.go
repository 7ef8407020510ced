package schedule

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/de-tools/compliance-atlas/pkg/adapters"
	"github.com/de-tools/compliance-atlas/pkg/models/api"
	schedulesvc "github.com/de-tools/compliance-atlas/pkg/services/schedule"
)

type StatusSource interface {
	Status() []schedulesvc.Status
}

type Handler struct {
	source StatusSource
}

func NewHandler(source StatusSource) *Handler {
	return &Handler{source: source}
}

func (h *Handler) ListSchedules(w http.ResponseWriter, r *http.Request) {
	statuses := h.source.Status()
	res := make([]api.ScheduleStatus, 0, len(statuses))
	for _, s := range statuses {
		res = append(res, adapters.MapScheduleStatusToApi(s))
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(res); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to encode schedules")
	}
}
