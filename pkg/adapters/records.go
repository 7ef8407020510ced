package adapters

import (
	"fmt"

	"github.com/de-tools/compliance-atlas/pkg/models/domain"
	"github.com/de-tools/compliance-atlas/pkg/models/store"
)

// MapStoreRecordToDomain rejects records whose compliance status is unknown.
func MapStoreRecordToDomain(r *store.ComplianceRecord) (*domain.PersistedRecord, error) {
	if r == nil {
		return nil, nil
	}

	verdict, err := domain.ParseVerdict(r.ComplianceStatus)
	if err != nil {
		return nil, fmt.Errorf("record %s: %w", r.ResourceID, err)
	}

	return &domain.PersistedRecord{
		ResourceArn:      r.ResourceArn,
		ResourceID:       r.ResourceID,
		AccountID:        r.AccountID,
		AccountName:      r.AccountName,
		PrimaryContact:   r.PrimaryContact,
		SecondaryContact: r.SecondaryContact,
		ComplianceStatus: verdict,
		FindingID:        r.FindingID,
		Expiry:           r.Expiry,
	}, nil
}

func MapDomainRecordToStore(r domain.PersistedRecord) store.ComplianceRecord {
	return store.ComplianceRecord{
		ResourceArn:      r.ResourceArn,
		ResourceID:       r.ResourceID,
		AccountID:        r.AccountID,
		AccountName:      r.AccountName,
		PrimaryContact:   r.PrimaryContact,
		SecondaryContact: r.SecondaryContact,
		ComplianceStatus: string(r.ComplianceStatus),
		FindingID:        r.FindingID,
		Expiry:           r.Expiry,
	}
}
