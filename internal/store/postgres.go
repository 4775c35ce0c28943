// internal/store/postgres.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	apperrors "loan-journey/internal/common/errors"
	"loan-journey/internal/common/logger"
	"loan-journey/internal/models"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS loan_applications (
	seq              BIGSERIAL PRIMARY KEY,
	id               TEXT NOT NULL UNIQUE,
	status           TEXT NOT NULL,
	data             JSONB NOT NULL,
	sanction_data    JSONB,
	rejection_reason TEXT NOT NULL DEFAULT '',
	created_at       TIMESTAMPTZ NOT NULL,
	updated_at       TIMESTAMPTZ NOT NULL
)`

const selectColumns = `SELECT id, status, data, sanction_data, rejection_reason, created_at, updated_at FROM loan_applications`

// PostgresStore keeps applications in the loan_applications table. The
// record and sanction are stored as JSONB snapshots.
type PostgresStore struct {
	db     *sql.DB
	logger logger.Logger
	now    func() time.Time
}

func NewPostgresStore(db *sql.DB, log logger.Logger) *PostgresStore {
	return &PostgresStore{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"store": "postgres"}),
		now:    time.Now,
	}
}

// EnsureSchema creates the table when it does not exist.
func (p *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("%w: create schema: %v", apperrors.ErrStorePersistFailed, err)
	}
	return nil
}

func (p *PostgresStore) Persist(ctx context.Context, rec models.ApplicationRecord, status models.ApplicationStatus,
	sanction *models.SanctionRecord, rejectionReason string) (string, error) {
	app := newStoredApplication(p.now(), rec, status, sanction, rejectionReason)

	data, err := json.Marshal(app.Data)
	if err != nil {
		return "", fmt.Errorf("%w: marshal application: %v", apperrors.ErrStorePersistFailed, err)
	}

	// nil interface so the driver writes NULL
	var sanctionJSON interface{}
	if app.Sanction != nil {
		b, err := json.Marshal(app.Sanction)
		if err != nil {
			return "", fmt.Errorf("%w: marshal sanction: %v", apperrors.ErrStorePersistFailed, err)
		}
		sanctionJSON = b
	}

	_, err = p.db.ExecContext(ctx, `
		INSERT INTO loan_applications (
			id, status, data, sanction_data, rejection_reason, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $6)`,
		app.ID,
		string(app.Status),
		data,
		sanctionJSON,
		app.RejectionReason,
		app.CreatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("%w: insert failed: %v", apperrors.ErrStorePersistFailed, err)
	}

	p.logger.Info("application stored", map[string]interface{}{
		"applicationId": app.ID,
		"status":        app.Status,
	})
	return app.ID, nil
}

func (p *PostgresStore) ListAll(ctx context.Context) ([]models.StoredApplication, error) {
	rows, err := p.db.QueryContext(ctx, selectColumns+` ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrStoreReadFailed, err)
	}
	defer rows.Close()

	var apps []models.StoredApplication
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		apps = append(apps, *app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrStoreReadFailed, err)
	}
	return apps, nil
}

func (p *PostgresStore) GetByID(ctx context.Context, id string) (*models.StoredApplication, error) {
	row := p.db.QueryRowContext(ctx, selectColumns+` WHERE id = $1`, id)
	app, err := scanApplication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrApplicationNotFound, id)
	}
	return app, err
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanApplication(s scanner) (*models.StoredApplication, error) {
	var (
		app          models.StoredApplication
		status       string
		data         []byte
		sanctionJSON []byte
	)
	err := s.Scan(&app.ID, &status, &data, &sanctionJSON, &app.RejectionReason, &app.CreatedAt, &app.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: scan: %v", apperrors.ErrStoreReadFailed, err)
	}

	app.Status = models.ApplicationStatus(status)
	if err := json.Unmarshal(data, &app.Data); err != nil {
		return nil, fmt.Errorf("%w: decode application %s: %v", apperrors.ErrStoreReadFailed, app.ID, err)
	}
	if len(sanctionJSON) > 0 {
		app.Sanction = &models.SanctionRecord{}
		if err := json.Unmarshal(sanctionJSON, app.Sanction); err != nil {
			return nil, fmt.Errorf("%w: decode sanction %s: %v", apperrors.ErrStoreReadFailed, app.ID, err)
		}
	}
	return &app, nil
}
