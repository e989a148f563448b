package dao

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/geni/gdpr-consent-api/internal/database"
	"github.com/geni/gdpr-consent-api/internal/models"
	"github.com/geni/gdpr-consent-api/pkg/utils"
)

// Queries for the gdpr_accepts table
var (
	QueryCreateGdprAcceptsTable = database.DBQuery{
		ID: "CREATE_GDPR_ACCEPTS_TABLE",
		Query: `CREATE TABLE IF NOT EXISTS gdpr_accepts (
			user_urn VARCHAR(255) NOT NULL PRIMARY KEY,
			accept_json TEXT NOT NULL,
			until_date VARCHAR(64) NOT NULL
		)`,
		SQLiteQuery: `CREATE TABLE IF NOT EXISTS gdpr_accepts (
			user_urn TEXT PRIMARY KEY,
			accept_json TEXT,
			until_date TEXT
		)`,
	}

	QueryGetGdprAccept = database.DBQuery{
		ID:    "GET_GDPR_ACCEPT",
		Query: "SELECT user_urn, accept_json, until_date FROM gdpr_accepts WHERE user_urn = ?",
	}

	QueryUpsertGdprAccept = database.DBQuery{
		ID: "UPSERT_GDPR_ACCEPT",
		Query: "INSERT INTO gdpr_accepts (user_urn, accept_json, until_date) VALUES (?, ?, ?) " +
			"ON DUPLICATE KEY UPDATE accept_json = VALUES(accept_json), until_date = VALUES(until_date)",
		PostgresQuery: "INSERT INTO gdpr_accepts (user_urn, accept_json, until_date) VALUES (?, ?, ?) " +
			"ON CONFLICT (user_urn) DO UPDATE SET accept_json = EXCLUDED.accept_json, until_date = EXCLUDED.until_date",
		SQLiteQuery: "INSERT OR REPLACE INTO gdpr_accepts (user_urn, accept_json, until_date) VALUES (?, ?, ?)",
	}

	QueryDeleteGdprAccept = database.DBQuery{
		ID:    "DELETE_GDPR_ACCEPT",
		Query: "DELETE FROM gdpr_accepts WHERE user_urn = ?",
	}
)

// gdprAcceptRow mirrors the stored columns before decoding
type gdprAcceptRow struct {
	UserURN    string `db:"user_urn"`
	AcceptJSON string `db:"accept_json"`
	UntilDate  string `db:"until_date"`
}

// GdprAcceptDAO handles database operations for GDPR accepts.
// Every method borrows a pooled connection for the duration of the call only.
type GdprAcceptDAO struct {
	db     *database.DB
	logger *logrus.Logger
}

// NewGdprAcceptDAO creates a new GdprAcceptDAO instance
func NewGdprAcceptDAO(db *database.DB, logger *logrus.Logger) *GdprAcceptDAO {
	return &GdprAcceptDAO{db: db, logger: logger}
}

// EnsureSchema creates the gdpr_accepts table if it does not exist
func (dao *GdprAcceptDAO) EnsureSchema(ctx context.Context) error {
	if _, err := dao.db.ExecContext(ctx, dao.db.Prepare(QueryCreateGdprAcceptsTable)); err != nil {
		return fmt.Errorf("%w: failed to create gdpr_accepts table: %w", models.ErrStorageFailure, err)
	}
	dao.logger.WithField("dialect", dao.db.Dialect()).Debug("gdpr_accepts schema ready")
	return nil
}

// Find returns the stored accepts of a user, or nil when there is no record
func (dao *GdprAcceptDAO) Find(ctx context.Context, userURN string) (*models.GdprAccept, error) {
	var row gdprAcceptRow
	err := dao.db.GetContext(ctx, &row, dao.db.Prepare(QueryGetGdprAccept), userURN)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: failed to get gdpr accepts: %w", models.ErrStorageFailure, err)
	}

	record, err := decodeRow(row)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrStorageFailure, err)
	}
	return record, nil
}

// Upsert inserts or replaces the record of a user. The derived testbed
// access flag is recomputed from the two accept flags before writing.
func (dao *GdprAcceptDAO) Upsert(ctx context.Context, record *models.GdprAccept) error {
	fields := models.NewAcceptFields(record.Fields.AcceptMain, record.Fields.AcceptUserdata)
	acceptJSON, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("%w: failed to marshal accept fields: %w", models.ErrStorageFailure, err)
	}
	until := utils.FormatTimestamp(record.RecordedAt)

	err = dao.db.WithTransaction(ctx, func(tx *database.Transaction) error {
		_, err := tx.ExecContext(ctx, dao.db.Prepare(QueryUpsertGdprAccept), record.UserURN, string(acceptJSON), until)
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: failed to upsert gdpr accepts: %w", models.ErrStorageFailure, err)
	}
	return nil
}

// Delete removes the record of a user. Deleting a missing record is a no-op.
func (dao *GdprAcceptDAO) Delete(ctx context.Context, userURN string) error {
	var affected int64
	err := dao.db.WithTransaction(ctx, func(tx *database.Transaction) error {
		result, err := tx.ExecContext(ctx, dao.db.Prepare(QueryDeleteGdprAccept), userURN)
		if err != nil {
			return err
		}
		affected, _ = result.RowsAffected()
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: failed to delete gdpr accepts: %w", models.ErrStorageFailure, err)
	}

	dao.logger.WithFields(logrus.Fields{
		"user_urn": userURN,
		"deleted":  affected,
	}).Debug("gdpr accepts deleted")
	return nil
}

func decodeRow(row gdprAcceptRow) (*models.GdprAccept, error) {
	var fields models.AcceptFields
	if err := json.Unmarshal([]byte(row.AcceptJSON), &fields); err != nil {
		return nil, fmt.Errorf("%w: accept_json of %s: %w", models.ErrCorruptRecord, row.UserURN, err)
	}
	if !fields.Consistent() {
		return nil, fmt.Errorf("%w: testbed_access of %s does not match its accept flags", models.ErrCorruptRecord, row.UserURN)
	}

	recordedAt, err := utils.ParseTimestamp(row.UntilDate)
	if err != nil {
		return nil, fmt.Errorf("%w: until_date of %s: %w", models.ErrCorruptRecord, row.UserURN, err)
	}

	return &models.GdprAccept{
		UserURN:    row.UserURN,
		Fields:     fields,
		RecordedAt: recordedAt,
	}, nil
}
