package schedule

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/de-tools/compliance-atlas/pkg/models/domain"
)

type Controller interface {
	Start(ctx context.Context, payload domain.InvocationPayload) error
	Cancel(ctx context.Context, accountID string) error
	Status() []Status
}

type Status struct {
	AccountID   string
	AccountName string
	Interval    time.Duration
	Last        RunnerProgress
}

type scheduleDescriptor struct {
	cancelFunc context.CancelFunc
	payload    domain.InvocationPayload
	runner     *Runner
}

type DefaultController struct {
	auditor  AccountAuditor
	interval time.Duration

	mu        sync.Mutex
	schedules map[string]scheduleDescriptor
}

func NewController(auditor AccountAuditor, interval time.Duration) *DefaultController {
	return &DefaultController{
		auditor:   auditor,
		interval:  interval,
		schedules: make(map[string]scheduleDescriptor),
	}
}

// Start schedules the account; the first pass begins immediately.
func (ctrl *DefaultController) Start(ctx context.Context, payload domain.InvocationPayload) error {
	if payload.AccountID == "" {
		return errors.New("account id is required")
	}
	if ctrl.interval <= 0 {
		return fmt.Errorf("invalid schedule interval %s", ctrl.interval)
	}

	ctrl.mu.Lock()
	defer ctrl.mu.Unlock()

	if _, ok := ctrl.schedules[payload.AccountID]; ok {
		return fmt.Errorf("account already scheduled: %s", payload.AccountID)
	}

	ctx, cancel := context.WithCancel(ctx)
	runner := NewRunner(ctrl.auditor, payload, RunnerConfig{Interval: ctrl.interval})
	ctrl.schedules[payload.AccountID] = scheduleDescriptor{
		cancelFunc: cancel,
		payload:    payload,
		runner:     runner,
	}

	go runner.Run(ctx)
	return nil
}

// Cancel stops the schedule and waits for a running pass to finish.
func (ctrl *DefaultController) Cancel(_ context.Context, accountID string) error {
	ctrl.mu.Lock()
	desc, ok := ctrl.schedules[accountID]
	delete(ctrl.schedules, accountID)
	ctrl.mu.Unlock()

	if !ok {
		return fmt.Errorf("account not scheduled: %s", accountID)
	}
	desc.cancelFunc()
	<-desc.runner.Done()
	return nil
}

func (ctrl *DefaultController) CancelAll(ctx context.Context) {
	ctrl.mu.Lock()
	ids := make([]string, 0, len(ctrl.schedules))
	for id := range ctrl.schedules {
		ids = append(ids, id)
	}
	ctrl.mu.Unlock()

	for _, id := range ids {
		_ = ctrl.Cancel(ctx, id)
	}
}

func (ctrl *DefaultController) Status() []Status {
	ctrl.mu.Lock()
	defer ctrl.mu.Unlock()

	out := make([]Status, 0, len(ctrl.schedules))
	for _, desc := range ctrl.schedules {
		out = append(out, Status{
			AccountID:   desc.payload.AccountID,
			AccountName: desc.payload.AccountName,
			Interval:    ctrl.interval,
			Last:        desc.runner.Last(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AccountID < out[j].AccountID })
	return out
}
