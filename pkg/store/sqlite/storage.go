package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const ComplianceRecordsSchema = `
	CREATE TABLE IF NOT EXISTS compliance_records (
		resource_id VARCHAR NOT NULL PRIMARY KEY,
		resource_arn VARCHAR NOT NULL,
		account_id VARCHAR NOT NULL,
		account_name VARCHAR,
		primary_contact VARCHAR,
		secondary_contact VARCHAR,
		compliance_status VARCHAR NOT NULL,
		finding_id VARCHAR NOT NULL,
		expiry INTEGER NOT NULL
	);
`

const ComplianceRecordsAccountIndex = `
	CREATE INDEX IF NOT EXISTS compliance_records_account ON compliance_records (account_id);
`

var bootQueries = []string{
	ComplianceRecordsSchema,
	ComplianceRecordsAccountIndex,
}

type Settings struct {
	DbPath string
	// BusyTimeoutMs is how long sqlite waits on a locked database before failing the statement.
	BusyTimeoutMs int
}

func NewDB(ctx context.Context, settings Settings) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)", settings.DbPath, settings.BusyTimeoutMs)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	for _, query := range bootQueries {
		if _, err := db.ExecContext(ctx, query); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply schema: %w", err)
		}
	}

	return db, nil
}
