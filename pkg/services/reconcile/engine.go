package reconcile

import (
	"time"

	"github.com/de-tools/compliance-atlas/pkg/models/domain"
	"github.com/google/uuid"
)

// IDGenerator allocates finding identifiers. Identifiers must be globally unique.
type IDGenerator func() string

// NewFindingID returns a time-ordered (version 1) UUID, falling back to a
// random one if the node clock cannot be read.
func NewFindingID() string {
	id, err := uuid.NewUUID()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Engine decides the finding lifecycle for a resource by comparing the
// current verdict to the last persisted one.
type Engine struct {
	newID IDGenerator
}

func NewEngine(gen IDGenerator) *Engine {
	if gen == nil {
		gen = NewFindingID
	}
	return &Engine{newID: gen}
}

// Reconcile never fails. A prior record that is missing its finding id or
// carries an unknown verdict is treated as absent.
//
//	no prior          -> [new(fresh)]
//	same verdict      -> [update(prior)]
//	verdict changed   -> [archive(prior), new(fresh)]
//
// Archive must precede new: the archived document keeps the old verdict and
// submitting it second would leave two active findings for one resource.
func (e *Engine) Reconcile(
	obs domain.ResourceObservation,
	prior *domain.PersistedRecord,
	acct domain.AccountContext,
	writeTime time.Time,
) domain.ReconciliationPlan {
	var actions []domain.FindingAction

	switch {
	case !prior.Usable():
		actions = []domain.FindingAction{
			{Kind: domain.ActionNew, FindingID: e.allocate(""), Verdict: obs.Verdict},
		}
	case prior.ComplianceStatus == obs.Verdict:
		actions = []domain.FindingAction{
			{Kind: domain.ActionUpdate, FindingID: prior.FindingID, Verdict: obs.Verdict},
		}
	default:
		actions = []domain.FindingAction{
			{Kind: domain.ActionArchive, FindingID: prior.FindingID, Verdict: prior.ComplianceStatus},
			{Kind: domain.ActionNew, FindingID: e.allocate(prior.FindingID), Verdict: obs.Verdict},
		}
	}

	last := actions[len(actions)-1]
	return domain.ReconciliationPlan{
		Actions: actions,
		Record: domain.PersistedRecord{
			ResourceArn:      obs.ResourceArn,
			ResourceID:       obs.ResourceID,
			AccountID:        acct.ID,
			AccountName:      acct.Name,
			PrimaryContact:   obs.Contacts.Primary,
			SecondaryContact: obs.Contacts.Secondary,
			ComplianceStatus: obs.Verdict,
			FindingID:        last.FindingID,
			Expiry:           domain.ExpiryAt(writeTime),
		},
	}
}

func (e *Engine) allocate(previous string) string {
	for i := 0; i < 3; i++ {
		if id := e.newID(); id != "" && id != previous {
			return id
		}
	}
	return NewFindingID()
}
