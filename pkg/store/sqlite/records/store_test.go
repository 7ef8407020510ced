package records

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/de-tools/compliance-atlas/pkg/models/store"
	staterecords "github.com/de-tools/compliance-atlas/pkg/store/records"
)

var columns = []string{
	"resource_arn", "resource_id", "account_id", "account_name", "primary_contact",
	"secondary_contact", "compliance_status", "finding_id", "expiry",
}

func TestNewStore_NilDB(t *testing.T) {
	s, err := NewStore(nil)
	assert.Error(t, err)
	assert.Nil(t, s)
}

func TestStore_ListByAccount(t *testing.T) {
	// Given: one stored record with a missing secondary contact
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM compliance_records")).
		WithArgs("111122223333").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("arn:j-1", "j-1", "111122223333", "org-sbx", "ops@example.com", nil, "PASSED", "F1", int64(42)))

	s, err := NewStore(db)
	require.NoError(t, err)

	// When
	recs, err := s.ListByAccount(context.Background(), "111122223333")

	// Then
	require.NoError(t, err)
	assert.Equal(t, []store.ComplianceRecord{{
		ResourceArn:      "arn:j-1",
		ResourceID:       "j-1",
		AccountID:        "111122223333",
		AccountName:      "org-sbx",
		PrimaryContact:   "ops@example.com",
		ComplianceStatus: "PASSED",
		FindingID:        "F1",
		Expiry:           42,
	}}, recs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Put(t *testing.T) {
	rec := store.ComplianceRecord{
		ResourceArn:      "arn:j-1",
		ResourceID:       "j-1",
		AccountID:        "111122223333",
		AccountName:      "org-sbx",
		PrimaryContact:   "unknown",
		SecondaryContact: "unknown",
		ComplianceStatus: "FAILED",
		FindingID:        "F2",
		Expiry:           99,
	}

	t.Run("upserts by resource id", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (resource_id) DO UPDATE")).
			WithArgs("j-1", "arn:j-1", "111122223333", "org-sbx", "unknown", "unknown", "FAILED", "F2", int64(99)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		s, err := NewStore(db)
		require.NoError(t, err)

		res, err := s.Put(context.Background(), rec)
		require.NoError(t, err)
		assert.Equal(t, staterecords.WriteResult{}, res)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("generic failure is not throttling", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec("INSERT INTO compliance_records").WillReturnError(errors.New("disk I/O error"))

		s, err := NewStore(db)
		require.NoError(t, err)

		_, err = s.Put(context.Background(), rec)
		require.Error(t, err)
		assert.False(t, errors.Is(err, staterecords.ErrThrottled))
	})
}
