package reconcile

import (
	"fmt"
	"testing"
	"time"

	"github.com/de-tools/compliance-atlas/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	writeTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	account   = domain.AccountContext{ID: "111122223333", Name: "org-sbx", Region: "us-east-1", Partition: "aws"}
)

func sequence(prefix string) IDGenerator {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s%d", prefix, n)
	}
}

func observation(v domain.Verdict) domain.ResourceObservation {
	return domain.ResourceObservation{
		ResourceArn: "arn:aws:elasticmapreduce:us-east-1:111122223333:cluster/j-1",
		ResourceID:  "j-1",
		AccountID:   account.ID,
		Verdict:     v,
		Contacts:    domain.Contacts{Primary: "a@example.com", Secondary: domain.UnknownContact},
	}
}

func TestEngine_NoPriorRecord(t *testing.T) {
	e := NewEngine(nil)

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		plan := e.Reconcile(observation(domain.VerdictFailed), nil, account, writeTime)

		require.Len(t, plan.Actions, 1)
		assert.Equal(t, domain.ActionNew, plan.Actions[0].Kind)
		assert.NotEmpty(t, plan.Actions[0].FindingID)
		assert.False(t, seen[plan.Actions[0].FindingID], "finding id reused")
		seen[plan.Actions[0].FindingID] = true
		assert.Equal(t, plan.Actions[0].FindingID, plan.Record.FindingID)
	}
}

func TestEngine_UnchangedVerdictReusesFindingID(t *testing.T) {
	calls := 0
	e := NewEngine(func() string {
		calls++
		return "unexpected"
	})
	prior := &domain.PersistedRecord{ResourceID: "j-1", ComplianceStatus: domain.VerdictPassed, FindingID: "F1"}

	plan := e.Reconcile(observation(domain.VerdictPassed), prior, account, writeTime)

	require.Len(t, plan.Actions, 1)
	assert.Equal(t, domain.FindingAction{Kind: domain.ActionUpdate, FindingID: "F1", Verdict: domain.VerdictPassed}, plan.Actions[0])
	assert.Equal(t, "F1", plan.Record.FindingID)
	assert.Zero(t, calls, "no identifier may be allocated for an unchanged verdict")
}

func TestEngine_VerdictChangeArchivesThenCreates(t *testing.T) {
	e := NewEngine(sequence("F"))
	prior := &domain.PersistedRecord{ResourceID: "j-1", ComplianceStatus: domain.VerdictFailed, FindingID: "F0"}

	plan := e.Reconcile(observation(domain.VerdictPassed), prior, account, writeTime)

	require.Len(t, plan.Actions, 2)
	assert.Equal(t, domain.FindingAction{Kind: domain.ActionArchive, FindingID: "F0", Verdict: domain.VerdictFailed}, plan.Actions[0])
	assert.Equal(t, domain.ActionNew, plan.Actions[1].Kind)
	assert.Equal(t, domain.VerdictPassed, plan.Actions[1].Verdict)
	assert.NotEqual(t, "F0", plan.Actions[1].FindingID)
	assert.Equal(t, plan.Actions[1].FindingID, plan.Record.FindingID)
	assert.Equal(t, domain.VerdictPassed, plan.Record.ComplianceStatus)
}

func TestEngine_NewIDNeverEqualsPrior(t *testing.T) {
	ids := []string{"F0", "F0", "F9"}
	e := NewEngine(func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	})
	prior := &domain.PersistedRecord{ComplianceStatus: domain.VerdictFailed, FindingID: "F0"}

	plan := e.Reconcile(observation(domain.VerdictNotAvailable), prior, account, writeTime)

	require.Len(t, plan.Actions, 2)
	assert.Equal(t, "F9", plan.Actions[1].FindingID)
}

func TestEngine_CorruptPriorTreatedAsAbsent(t *testing.T) {
	e := NewEngine(sequence("N"))

	tests := []struct {
		name  string
		prior *domain.PersistedRecord
	}{
		{"missing finding id", &domain.PersistedRecord{ComplianceStatus: domain.VerdictFailed}},
		{"unknown verdict", &domain.PersistedRecord{ComplianceStatus: "COMPLIANT", FindingID: "F1"}},
		{"empty verdict", &domain.PersistedRecord{FindingID: "F1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := e.Reconcile(observation(domain.VerdictFailed), tt.prior, account, writeTime)
			require.Len(t, plan.Actions, 1)
			assert.Equal(t, domain.ActionNew, plan.Actions[0].Kind)
		})
	}
}

func TestEngine_RecordContents(t *testing.T) {
	e := NewEngine(sequence("F"))

	plan := e.Reconcile(observation(domain.VerdictFailed), nil, account, writeTime)

	assert.Equal(t, domain.PersistedRecord{
		ResourceArn:      "arn:aws:elasticmapreduce:us-east-1:111122223333:cluster/j-1",
		ResourceID:       "j-1",
		AccountID:        "111122223333",
		AccountName:      "org-sbx",
		PrimaryContact:   "a@example.com",
		SecondaryContact: domain.UnknownContact,
		ComplianceStatus: domain.VerdictFailed,
		FindingID:        "F1",
		Expiry:           writeTime.Unix() + 7776000,
	}, plan.Record)
}

func TestEngine_ReplayIsIdempotent(t *testing.T) {
	e := NewEngine(nil)

	first := e.Reconcile(observation(domain.VerdictFailed), nil, account, writeTime)
	second := e.Reconcile(observation(domain.VerdictFailed), &first.Record, account, writeTime)
	third := e.Reconcile(observation(domain.VerdictFailed), &second.Record, account, writeTime)

	assert.Equal(t, first.Record, second.Record)
	assert.Equal(t, second.Record, third.Record)
	assert.Equal(t, domain.ActionUpdate, third.Actions[0].Kind)
}

func TestNewFindingID_Unique(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		id := NewFindingID()
		_, dup := seen[id]
		require.False(t, dup)
		seen[id] = struct{}{}
	}
}
