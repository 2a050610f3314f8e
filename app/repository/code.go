package repository

import (
	"context"
	"database/sql"

	"github.com/campuslink/auth-service/app/entity"
)

// VerificationRepository persists the one-per-user email verification row.
type VerificationRepository struct {
	db DBTX
}

func NewVerificationRepository(db DBTX) *VerificationRepository {
	return &VerificationRepository{db: db}
}

func (r *VerificationRepository) FindByOwnerID(ctx context.Context, ownerID uint64) (*entity.CodeRecord, error) {
	query := `
		SELECT id, owner_id, code, expires_at, is_verified, verified_at
		FROM email_verifications WHERE owner_id = ?
	`
	rec := &entity.CodeRecord{}
	err := r.db.QueryRowContext(ctx, query, ownerID).Scan(
		&rec.ID,
		&rec.OwnerID,
		&rec.Code,
		&rec.ExpiresAt,
		&rec.Done,
		&rec.DoneAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Upsert writes the record keyed by owner id, creating it on first use. The
// single-row write keeps code and expiry consistent under concurrent
// requests for the same user.
func (r *VerificationRepository) Upsert(ctx context.Context, rec *entity.CodeRecord) error {
	query := `
		INSERT INTO email_verifications (owner_id, code, expires_at, is_verified, verified_at)
		VALUES (?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			code = VALUES(code),
			expires_at = VALUES(expires_at),
			is_verified = VALUES(is_verified),
			verified_at = VALUES(verified_at)
	`
	result, err := r.db.ExecContext(ctx, query,
		rec.OwnerID,
		rec.Code,
		rec.ExpiresAt,
		rec.Done,
		rec.DoneAt,
	)
	if err != nil {
		return err
	}

	if rec.ID == 0 {
		if id, err := result.LastInsertId(); err == nil && id > 0 {
			rec.ID = uint64(id)
		}
	}
	return nil
}

// PasswordResetRepository persists the one-per-user password reset row.
// Done maps onto used_at: a set used_at means the code was consumed.
type PasswordResetRepository struct {
	db DBTX
}

func NewPasswordResetRepository(db DBTX) *PasswordResetRepository {
	return &PasswordResetRepository{db: db}
}

func (r *PasswordResetRepository) FindByOwnerID(ctx context.Context, ownerID uint64) (*entity.CodeRecord, error) {
	query := `
		SELECT id, owner_id, code, expires_at, used_at
		FROM password_resets WHERE owner_id = ?
	`
	rec := &entity.CodeRecord{}
	err := r.db.QueryRowContext(ctx, query, ownerID).Scan(
		&rec.ID,
		&rec.OwnerID,
		&rec.Code,
		&rec.ExpiresAt,
		&rec.DoneAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rec.Done = rec.DoneAt.Valid
	return rec, nil
}

func (r *PasswordResetRepository) Upsert(ctx context.Context, rec *entity.CodeRecord) error {
	query := `
		INSERT INTO password_resets (owner_id, code, expires_at, used_at)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			code = VALUES(code),
			expires_at = VALUES(expires_at),
			used_at = VALUES(used_at)
	`
	result, err := r.db.ExecContext(ctx, query,
		rec.OwnerID,
		rec.Code,
		rec.ExpiresAt,
		rec.DoneAt,
	)
	if err != nil {
		return err
	}

	if rec.ID == 0 {
		if id, err := result.LastInsertId(); err == nil && id > 0 {
			rec.ID = uint64(id)
		}
	}
	return nil
}
