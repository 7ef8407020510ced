package evaluator

import (
	"strings"

	"github.com/de-tools/compliance-atlas/pkg/models/domain"
)

const DefaultApprovedPrefix = "s3://emr-boot-strap/"

// Evaluator decides whether a cluster launched with an approved bootstrap script.
type Evaluator struct {
	approvedPrefix string
}

func New(approvedPrefix string) *Evaluator {
	if approvedPrefix == "" {
		approvedPrefix = DefaultApprovedPrefix
	}
	return &Evaluator{approvedPrefix: approvedPrefix}
}

// Evaluate returns NOT_AVAILABLE only when the configuration could not be
// retrieved; a cluster without bootstrap actions fails.
func (e *Evaluator) Evaluate(cfg *domain.ResourceConfig) domain.Verdict {
	if cfg == nil {
		return domain.VerdictNotAvailable
	}
	for _, path := range cfg.BootstrapScripts {
		if strings.HasPrefix(strings.TrimSpace(path), e.approvedPrefix) {
			return domain.VerdictPassed
		}
	}
	return domain.VerdictFailed
}
