package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/campuslink/auth-service/app/entity"
	"github.com/campuslink/auth-service/app/repository"
	"github.com/campuslink/auth-service/config"
)

const searchResultLimit = 20

type userRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindByUsername(ctx context.Context, username string) (*entity.User, error)
	FindByIdentifier(ctx context.Context, email, username string) (*entity.User, error)
	FindByID(ctx context.Context, id uint64) (*entity.User, error)
	Search(ctx context.Context, query string, excludeUserID uint64, limit int) ([]*entity.User, error)
}

type verificationReader interface {
	FindByOwnerID(ctx context.Context, ownerID uint64) (*entity.CodeRecord, error)
}

type codeWorkflow interface {
	Request(ctx context.Context, user *entity.User) (CodeOutcome, error)
	Confirm(ctx context.Context, user *entity.User, submitted string, onConfirm ConfirmHook) (CodeOutcome, error)
}

type tokenProvider interface {
	Issue(userID uint64) (string, error)
	Verify(token string) (uint64, error)
}

type AuthService interface {
	Signup(ctx context.Context, email, username, name, password string) (*entity.User, error)
	Login(ctx context.Context, identifier, password string) (string, error)
	RequestVerification(ctx context.Context, email string) (CodeOutcome, error)
	ConfirmVerification(ctx context.Context, email, code string) (CodeOutcome, error)
	RequestPasswordReset(ctx context.Context, email string) (CodeOutcome, error)
	ConfirmPasswordReset(ctx context.Context, email, code, newPassword string) (CodeOutcome, error)
	SearchUsers(ctx context.Context, query string, excludeUserID uint64) ([]*entity.User, error)
	CurrentUser(ctx context.Context, userID uint64) (*entity.User, error)
	VerifyAccessToken(tokenString string) (uint64, error)
}

type authService struct {
	users         userRepository
	verifications verificationReader
	tokens        tokenProvider
	verifyCodes   codeWorkflow
	resetCodes    codeWorkflow
	cfg           *config.Config
}

func NewAuthService(
	users userRepository,
	verifications verificationReader,
	tokens tokenProvider,
	verifyCodes codeWorkflow,
	resetCodes codeWorkflow,
	cfg *config.Config,
) AuthService {
	return &authService{
		users:         users,
		verifications: verifications,
		tokens:        tokens,
		verifyCodes:   verifyCodes,
		resetCodes:    resetCodes,
		cfg:           cfg,
	}
}

func (s *authService) Signup(ctx context.Context, email, username, name, password string) (*entity.User, error) {
	email = NormalizeEmail(email)
	username = NormalizeUsername(username)

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	existing, err = s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUsernameTaken
	}

	if err = s.cfg.PasswordPolicy.Validate(password); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrWeakPassword, err.Error())
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	user := &entity.User{
		Email:        email,
		Username:     username,
		Name:         sql.NullString{String: name, Valid: name != ""},
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}

	if err = s.users.Create(ctx, user); err != nil {
		// two concurrent signups can both pass the pre-checks; the unique
		// constraint breaks the tie and still surfaces as a conflict
		if repository.IsDuplicateEntry(err) {
			return nil, ErrUserExists
		}
		return nil, err
	}
	return user, nil
}

func (s *authService) Login(ctx context.Context, identifier, password string) (string, error) {
	user, err := s.users.FindByIdentifier(ctx, NormalizeEmail(identifier), strings.TrimSpace(identifier))
	if err != nil {
		return "", err
	}
	if user == nil || !CheckPassword(password, user.PasswordHash) {
		return "", ErrInvalidCredentials
	}

	if s.cfg.RequireVerifiedEmail {
		rec, err := s.verifications.FindByOwnerID(ctx, user.ID)
		if err != nil {
			return "", err
		}
		// same error as bad credentials so login responses do not reveal
		// which accounts exist or are unverified
		if rec == nil || !rec.Done {
			return "", ErrInvalidCredentials
		}
	}

	return s.tokens.Issue(user.ID)
}

func (s *authService) RequestVerification(ctx context.Context, email string) (CodeOutcome, error) {
	user, err := s.userByEmail(ctx, email)
	if err != nil {
		return 0, err
	}
	return s.verifyCodes.Request(ctx, user)
}

func (s *authService) ConfirmVerification(ctx context.Context, email, code string) (CodeOutcome, error) {
	user, err := s.userByEmail(ctx, email)
	if err != nil {
		return 0, err
	}
	return s.verifyCodes.Confirm(ctx, user, code, nil)
}

func (s *authService) RequestPasswordReset(ctx context.Context, email string) (CodeOutcome, error) {
	user, err := s.userByEmail(ctx, email)
	if err != nil {
		return 0, err
	}
	return s.resetCodes.Request(ctx, user)
}

func (s *authService) ConfirmPasswordReset(ctx context.Context, email, code, newPassword string) (CodeOutcome, error) {
	user, err := s.userByEmail(ctx, email)
	if err != nil {
		return 0, err
	}

	if err = s.cfg.PasswordPolicy.Validate(newPassword); err != nil {
		return 0, fmt.Errorf("%w: %s", ErrWeakPassword, err.Error())
	}

	// the password update rides in the confirmation transaction: either the
	// code is consumed and the password changes, or neither happens
	return s.resetCodes.Confirm(ctx, user, code, func(ctx context.Context, tx repository.DBTX) error {
		hash, err := HashPassword(newPassword)
		if err != nil {
			return err
		}
		return repository.NewUserRepository(tx).UpdatePassword(ctx, user.ID, hash)
	})
}

func (s *authService) SearchUsers(ctx context.Context, query string, excludeUserID uint64) ([]*entity.User, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < 2 {
		return nil, nil
	}
	return s.users.Search(ctx, strings.ToLower(query), excludeUserID, searchResultLimit)
}

func (s *authService) CurrentUser(ctx context.Context, userID uint64) (*entity.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *authService) VerifyAccessToken(tokenString string) (uint64, error) {
	return s.tokens.Verify(tokenString)
}

func (s *authService) userByEmail(ctx context.Context, email string) (*entity.User, error) {
	user, err := s.users.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}
