package service_test

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/campuslink/auth-service/app/entity"
	"github.com/campuslink/auth-service/app/repository"
	"github.com/campuslink/auth-service/app/service"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryCodeStore is an in-memory CodeStore shared across transactions; the
// surrounding sqlmock expectations assert the commit/rollback behavior.
type memoryCodeStore struct {
	records map[uint64]entity.CodeRecord
}

func newMemoryCodeStore() *memoryCodeStore {
	return &memoryCodeStore{records: make(map[uint64]entity.CodeRecord)}
}

func (s *memoryCodeStore) FindByOwnerID(_ context.Context, ownerID uint64) (*entity.CodeRecord, error) {
	rec, ok := s.records[ownerID]
	if !ok {
		return nil, nil
	}
	copied := rec
	return &copied, nil
}

func (s *memoryCodeStore) Upsert(_ context.Context, rec *entity.CodeRecord) error {
	if rec.ID == 0 {
		rec.ID = uint64(len(s.records) + 1)
	}
	s.records[rec.OwnerID] = *rec
	return nil
}

type recordedSend struct {
	recipient string
	code      string
	purpose   service.Purpose
	expiresIn time.Duration
}

type fakeSender struct {
	sends []recordedSend
	err   error
}

func (s *fakeSender) Send(_ context.Context, recipient, code string, purpose service.Purpose, expiresIn time.Duration) error {
	if s.err != nil {
		return s.err
	}
	s.sends = append(s.sends, recordedSend{recipient: recipient, code: code, purpose: purpose, expiresIn: expiresIn})
	return nil
}

func newEngine(t *testing.T, store *memoryCodeStore, sender *fakeSender, policy service.CodePolicy) (*service.CodeEngine, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	engine := service.NewCodeEngine(db,
		func(repository.DBTX) service.CodeStore { return store },
		sender,
		policy,
		5*time.Second,
	)
	return engine, mock
}

func verificationPolicy() service.CodePolicy {
	return service.CodePolicy{
		Purpose:      service.PurposeVerification,
		TTL:          10 * time.Minute,
		SkipWhenDone: true,
	}
}

func resetPolicy() service.CodePolicy {
	return service.CodePolicy{
		Purpose: service.PurposeReset,
		TTL:     15 * time.Minute,
	}
}

func testUser() *entity.User {
	return &entity.User{ID: 1, Email: "alice@example.com", Username: "alice"}
}

func TestCodeEngine_RequestIssuesSixDigitCode(t *testing.T) {
	store := newMemoryCodeStore()
	sender := &fakeSender{}
	engine, mock := newEngine(t, store, sender, verificationPolicy())

	mock.ExpectBegin()
	mock.ExpectCommit()

	outcome, err := engine.Request(context.Background(), testUser())
	require.NoError(t, err)
	assert.Equal(t, service.OutcomeSent, outcome)

	require.Len(t, sender.sends, 1)
	assert.Equal(t, "alice@example.com", sender.sends[0].recipient)
	assert.Equal(t, service.PurposeVerification, sender.sends[0].purpose)
	assert.Equal(t, 10*time.Minute, sender.sends[0].expiresIn)
	assert.Regexp(t, regexp.MustCompile(`^\d{6}$`), sender.sends[0].code)

	rec := store.records[1]
	assert.True(t, rec.Code.Valid)
	assert.Equal(t, sender.sends[0].code, rec.Code.String)
	assert.True(t, rec.ExpiresAt.Valid)
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), rec.ExpiresAt.Time, 5*time.Second)
	assert.False(t, rec.Done)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCodeEngine_RequestOverwritesPendingCode(t *testing.T) {
	store := newMemoryCodeStore()
	store.records[1] = entity.CodeRecord{
		ID:        1,
		OwnerID:   1,
		Code:      sql.NullString{String: "111111", Valid: true},
		ExpiresAt: sql.NullTime{Time: time.Now().Add(time.Minute), Valid: true},
	}
	sender := &fakeSender{}
	engine, mock := newEngine(t, store, sender, verificationPolicy())

	mock.ExpectBegin()
	mock.ExpectCommit()

	outcome, err := engine.Request(context.Background(), testUser())
	require.NoError(t, err)
	assert.Equal(t, service.OutcomeSent, outcome)

	rec := store.records[1]
	assert.NotEqual(t, "111111", rec.Code.String)
	assert.Equal(t, uint64(1), rec.ID)
}

func TestCodeEngine_RequestShortCircuitsWhenVerified(t *testing.T) {
	store := newMemoryCodeStore()
	store.records[1] = entity.CodeRecord{
		ID:      1,
		OwnerID: 1,
		Done:    true,
		DoneAt:  sql.NullTime{Time: time.Now().Add(-time.Hour), Valid: true},
	}
	sender := &fakeSender{}
	engine, mock := newEngine(t, store, sender, verificationPolicy())

	outcome, err := engine.Request(context.Background(), testUser())
	require.NoError(t, err)
	assert.Equal(t, service.OutcomeAlreadyDone, outcome)
	assert.Empty(t, sender.sends)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCodeEngine_RequestReissuesAfterUse(t *testing.T) {
	store := newMemoryCodeStore()
	store.records[1] = entity.CodeRecord{
		ID:      1,
		OwnerID: 1,
		Done:    true,
		DoneAt:  sql.NullTime{Time: time.Now().Add(-time.Hour), Valid: true},
	}
	sender := &fakeSender{}
	engine, mock := newEngine(t, store, sender, resetPolicy())

	mock.ExpectBegin()
	mock.ExpectCommit()

	outcome, err := engine.Request(context.Background(), testUser())
	require.NoError(t, err)
	assert.Equal(t, service.OutcomeSent, outcome)

	rec := store.records[1]
	assert.False(t, rec.Done)
	assert.False(t, rec.DoneAt.Valid)
	assert.True(t, rec.Code.Valid)
}

func TestCodeEngine_RequestRollsBackOnDeliveryFailure(t *testing.T) {
	store := newMemoryCodeStore()
	sender := &fakeSender{err: errors.New("smtp unreachable")}
	engine, mock := newEngine(t, store, sender, verificationPolicy())

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := engine.Request(context.Background(), testUser())
	require.ErrorIs(t, err, service.ErrCodeDelivery)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCodeEngine_ConfirmNotRequested(t *testing.T) {
	store := newMemoryCodeStore()
	engine, mock := newEngine(t, store, &fakeSender{}, verificationPolicy())

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := engine.Confirm(context.Background(), testUser(), "123456", nil)
	require.ErrorIs(t, err, service.ErrCodeNotRequested)
}

func TestCodeEngine_ConfirmInvalidCode(t *testing.T) {
	store := newMemoryCodeStore()
	store.records[1] = entity.CodeRecord{
		ID:        1,
		OwnerID:   1,
		Code:      sql.NullString{String: "123456", Valid: true},
		ExpiresAt: sql.NullTime{Time: time.Now().Add(time.Minute), Valid: true},
	}
	engine, mock := newEngine(t, store, &fakeSender{}, verificationPolicy())

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := engine.Confirm(context.Background(), testUser(), "654321", nil)
	require.ErrorIs(t, err, service.ErrInvalidCode)

	rec := store.records[1]
	assert.False(t, rec.Done)
	assert.True(t, rec.Code.Valid)
}

func TestCodeEngine_ConfirmExpiredCode(t *testing.T) {
	store := newMemoryCodeStore()
	store.records[1] = entity.CodeRecord{
		ID:        1,
		OwnerID:   1,
		Code:      sql.NullString{String: "123456", Valid: true},
		ExpiresAt: sql.NullTime{Time: time.Now().Add(-time.Second), Valid: true},
	}
	engine, mock := newEngine(t, store, &fakeSender{}, verificationPolicy())

	mock.ExpectBegin()
	mock.ExpectRollback()

	// the code value itself still matches; only the window has passed
	_, err := engine.Confirm(context.Background(), testUser(), "123456", nil)
	require.ErrorIs(t, err, service.ErrCodeExpired)
}

func TestCodeEngine_ConfirmSucceedsOnceThenAlreadyDone(t *testing.T) {
	store := newMemoryCodeStore()
	store.records[1] = entity.CodeRecord{
		ID:        1,
		OwnerID:   1,
		Code:      sql.NullString{String: "123456", Valid: true},
		ExpiresAt: sql.NullTime{Time: time.Now().Add(time.Minute), Valid: true},
	}
	engine, mock := newEngine(t, store, &fakeSender{}, verificationPolicy())

	mock.ExpectBegin()
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectRollback()

	hookCalled := false
	outcome, err := engine.Confirm(context.Background(), testUser(), " 123456 ", func(context.Context, repository.DBTX) error {
		hookCalled = true
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, service.OutcomeConfirmed, outcome)
	assert.True(t, hookCalled)

	rec := store.records[1]
	assert.True(t, rec.Done)
	assert.True(t, rec.DoneAt.Valid)
	assert.False(t, rec.Code.Valid)
	assert.False(t, rec.ExpiresAt.Valid)

	// replaying the consumed code must not change state again
	outcome, err = engine.Confirm(context.Background(), testUser(), "123456", nil)
	require.NoError(t, err)
	assert.Equal(t, service.OutcomeAlreadyDone, outcome)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCodeEngine_ConfirmHookFailureRollsBack(t *testing.T) {
	store := newMemoryCodeStore()
	store.records[1] = entity.CodeRecord{
		ID:        1,
		OwnerID:   1,
		Code:      sql.NullString{String: "123456", Valid: true},
		ExpiresAt: sql.NullTime{Time: time.Now().Add(time.Minute), Valid: true},
	}
	engine, mock := newEngine(t, store, &fakeSender{}, resetPolicy())

	mock.ExpectBegin()
	mock.ExpectRollback()

	hookErr := errors.New("password update failed")
	_, err := engine.Confirm(context.Background(), testUser(), "123456", func(context.Context, repository.DBTX) error {
		return hookErr
	})
	require.ErrorIs(t, err, hookErr)

	require.NoError(t, mock.ExpectationsWereMet())
}
