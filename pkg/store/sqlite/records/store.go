package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/de-tools/compliance-atlas/pkg/models/store"
	staterecords "github.com/de-tools/compliance-atlas/pkg/store/records"
)

type recordStore struct {
	db *sql.DB
}

func NewStore(db *sql.DB) (staterecords.Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	return &recordStore{db: db}, nil
}

func (s *recordStore) ListByAccount(ctx context.Context, accountID string) ([]store.ComplianceRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT resource_arn, resource_id, account_id, account_name, primary_contact,
		       secondary_contact, compliance_status, finding_id, expiry
		FROM compliance_records
		WHERE account_id = ?
		ORDER BY resource_id`, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query records for account %s: %w", accountID, err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("failed to close rows")
		}
	}()

	var result []store.ComplianceRecord
	for rows.Next() {
		var (
			rec                             store.ComplianceRecord
			accountName, primary, secondary sql.NullString
		)
		if err := rows.Scan(
			&rec.ResourceArn, &rec.ResourceID, &rec.AccountID, &accountName, &primary,
			&secondary, &rec.ComplianceStatus, &rec.FindingID, &rec.Expiry,
		); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		rec.AccountName = accountName.String
		rec.PrimaryContact = primary.String
		rec.SecondaryContact = secondary.String
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}

	return result, nil
}

func (s *recordStore) Put(ctx context.Context, rec store.ComplianceRecord) (staterecords.WriteResult, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO compliance_records (
			resource_id, resource_arn, account_id, account_name, primary_contact,
			secondary_contact, compliance_status, finding_id, expiry
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (resource_id) DO UPDATE SET
			resource_arn = excluded.resource_arn,
			account_id = excluded.account_id,
			account_name = excluded.account_name,
			primary_contact = excluded.primary_contact,
			secondary_contact = excluded.secondary_contact,
			compliance_status = excluded.compliance_status,
			finding_id = excluded.finding_id,
			expiry = excluded.expiry`,
		rec.ResourceID, rec.ResourceArn, rec.AccountID, rec.AccountName, rec.PrimaryContact,
		rec.SecondaryContact, rec.ComplianceStatus, rec.FindingID, rec.Expiry,
	)
	if err != nil {
		if isBusy(err) {
			return staterecords.WriteResult{}, fmt.Errorf("%w: %w", staterecords.ErrThrottled, err)
		}
		return staterecords.WriteResult{}, fmt.Errorf("failed to upsert record %s: %w", rec.ResourceID, err)
	}
	return staterecords.WriteResult{}, nil
}

// isBusy reports lock contention, the local analogue of a capacity error.
func isBusy(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	switch sqliteErr.Code() & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return true
	}
	return false
}
