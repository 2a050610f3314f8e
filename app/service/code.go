package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/campuslink/auth-service/app/entity"
	"github.com/campuslink/auth-service/app/repository"
)

type Purpose string

const (
	PurposeVerification Purpose = "verification"
	PurposeReset        Purpose = "reset"
)

// Sender delivers a one-time code out of band. Implementations must fail
// explicitly rather than silently dropping the message.
type Sender interface {
	Send(ctx context.Context, recipient, code string, purpose Purpose, expiresIn time.Duration) error
}

// CodeStore is the single-row-per-owner persistence behind one purpose.
type CodeStore interface {
	FindByOwnerID(ctx context.Context, ownerID uint64) (*entity.CodeRecord, error)
	Upsert(ctx context.Context, rec *entity.CodeRecord) error
}

// ConfirmHook runs inside the confirmation transaction, after the record
// reaches its terminal state but before commit.
type ConfirmHook func(ctx context.Context, tx repository.DBTX) error

type CodeOutcome int

const (
	OutcomeSent CodeOutcome = iota + 1
	OutcomeConfirmed
	OutcomeAlreadyDone
)

type CodePolicy struct {
	Purpose Purpose
	TTL     time.Duration
	// SkipWhenDone short-circuits a request once the record is in its
	// terminal success state instead of issuing a fresh code. Email
	// verification sets this; password reset re-issues after use.
	SkipWhenDone bool
}

// CodeEngine drives the time-boxed single-use code lifecycle for one
// purpose: no code -> pending -> expired or terminal success.
type CodeEngine struct {
	db          *sql.DB
	store       func(repository.DBTX) CodeStore
	sender      Sender
	policy      CodePolicy
	sendTimeout time.Duration
}

func NewCodeEngine(db *sql.DB, store func(repository.DBTX) CodeStore, sender Sender, policy CodePolicy, sendTimeout time.Duration) *CodeEngine {
	return &CodeEngine{
		db:          db,
		store:       store,
		sender:      sender,
		policy:      policy,
		sendTimeout: sendTimeout,
	}
}

// Request issues a fresh code, overwriting any prior pending one, and
// dispatches it to the user. The code is written and sent inside one
// transaction: a delivery failure rolls the write back so a retry never
// observes a half-applied code.
func (e *CodeEngine) Request(ctx context.Context, user *entity.User) (CodeOutcome, error) {
	existing, err := e.store(e.db).FindByOwnerID(ctx, user.ID)
	if err != nil {
		return 0, err
	}
	if e.policy.SkipWhenDone && existing != nil && existing.Done {
		return OutcomeAlreadyDone, nil
	}

	code, err := generateCode()
	if err != nil {
		return 0, err
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	rec := &entity.CodeRecord{OwnerID: user.ID}
	if existing != nil {
		rec.ID = existing.ID
	}
	rec.Code = sql.NullString{String: code, Valid: true}
	rec.ExpiresAt = sql.NullTime{Time: time.Now().Add(e.policy.TTL), Valid: true}

	if err := e.store(tx).Upsert(ctx, rec); err != nil {
		return 0, err
	}

	sendCtx, cancel := context.WithTimeout(ctx, e.sendTimeout)
	defer cancel()
	if err := e.sender.Send(sendCtx, user.Email, code, e.policy.Purpose, e.policy.TTL); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrCodeDelivery, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return OutcomeSent, nil
}

// Confirm redeems a submitted code exactly once. Replaying a code after a
// successful confirmation yields OutcomeAlreadyDone, never a second state
// change. Expiry is checked against the stored timestamp.
func (e *CodeEngine) Confirm(ctx context.Context, user *entity.User, submitted string, onConfirm ConfirmHook) (CodeOutcome, error) {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	store := e.store(tx)
	rec, err := store.FindByOwnerID(ctx, user.ID)
	if err != nil {
		return 0, err
	}
	if rec == nil {
		return 0, ErrCodeNotRequested
	}
	if rec.Done {
		return OutcomeAlreadyDone, nil
	}

	submitted = strings.TrimSpace(submitted)
	if !rec.Code.Valid || rec.Code.String != submitted {
		return 0, ErrInvalidCode
	}
	if !rec.ExpiresAt.Valid || rec.ExpiresAt.Time.Before(time.Now()) {
		return 0, ErrCodeExpired
	}

	rec.Done = true
	rec.DoneAt = sql.NullTime{Time: time.Now(), Valid: true}
	rec.Code = sql.NullString{}
	rec.ExpiresAt = sql.NullTime{}

	if err := store.Upsert(ctx, rec); err != nil {
		return 0, err
	}

	if onConfirm != nil {
		if err := onConfirm(ctx, tx); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return OutcomeConfirmed, nil
}

// generateCode draws uniformly over all six-digit values, zero-padded.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
