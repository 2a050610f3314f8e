package http

import (
	"errors"
	"strings"
)

type SignupRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Name     string `json:"name,omitempty"`
	Password string `json:"password"`
}

func (r *SignupRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" || strings.TrimSpace(r.Username) == "" || r.Password == "" {
		return errors.New("email, username and password are required")
	}
	if !strings.Contains(r.Email, "@") {
		return errors.New("email is invalid")
	}
	return nil
}

// LoginRequest carries the login identifier in the email field; it may hold
// either an email address or a username.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" || r.Password == "" {
		return errors.New("email and password are required")
	}
	return nil
}

type VerificationRequest struct {
	Email string `json:"email"`
}

func (r *VerificationRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" {
		return errors.New("email is required")
	}
	return nil
}

type VerificationConfirmRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

func (r *VerificationConfirmRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" || strings.TrimSpace(r.Code) == "" {
		return errors.New("email and code are required")
	}
	return nil
}

type PasswordResetRequest struct {
	Email string `json:"email"`
}

func (r *PasswordResetRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" {
		return errors.New("email is required")
	}
	return nil
}

type PasswordResetConfirmRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}

func (r *PasswordResetConfirmRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" || strings.TrimSpace(r.Code) == "" || r.NewPassword == "" {
		return errors.New("email, code and new_password are required")
	}
	return nil
}
