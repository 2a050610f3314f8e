package controller

import (
	"errors"
	"net/http"

	httpdto "github.com/campuslink/auth-service/app/dto/http"
	"github.com/campuslink/auth-service/app/service"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type AuthController struct {
	authService service.AuthService
}

func NewAuthController(authService service.AuthService) *AuthController {
	return &AuthController{authService: authService}
}

func (c *AuthController) Signup(ctx echo.Context) error {
	var req httpdto.SignupRequest
	if err := ctx.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind signup request")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid request body"})
	}

	if err := req.Validate(); err != nil {
		logrus.WithField("email", req.Email).Debug("Signup validation failed")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: err.Error()})
	}

	logrus.WithField("email", req.Email).Info("Signup request received")
	user, err := c.authService.Signup(ctx.Request().Context(), req.Email, req.Username, req.Name, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrUserExists) {
			logrus.WithField("email", req.Email).Warn("Signup failed: conflict")
			return ctx.JSON(http.StatusConflict, httpdto.ErrorResponse{Error: err.Error()})
		}
		if errors.Is(err, service.ErrWeakPassword) {
			logrus.WithField("email", req.Email).Warn("Signup failed: weak password")
			return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: err.Error()})
		}
		logrus.WithError(err).WithField("email", req.Email).Error("Signup failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
	}

	logrus.WithFields(logrus.Fields{
		"user_id": user.ID,
		"email":   user.Email,
	}).Info("User registered")

	return ctx.JSON(http.StatusCreated, httpdto.NewUserResponse(user))
}

func (c *AuthController) Login(ctx echo.Context) error {
	var req httpdto.LoginRequest
	if err := ctx.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind login request")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid request body"})
	}

	if err := req.Validate(); err != nil {
		logrus.Debug("Login validation failed")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: err.Error()})
	}

	token, err := c.authService.Login(ctx.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			logrus.WithField("identifier", req.Email).Warn("Login failed: invalid credentials")
			return ctx.JSON(http.StatusForbidden, httpdto.ErrorResponse{Error: "invalid email/username or password"})
		}
		logrus.WithError(err).WithField("identifier", req.Email).Error("Login failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
	}

	logrus.WithField("identifier", req.Email).Info("Login successful")
	return ctx.JSON(http.StatusOK, httpdto.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	})
}

func (c *AuthController) RequestVerification(ctx echo.Context) error {
	var req httpdto.VerificationRequest
	if err := ctx.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind verification request")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid request body"})
	}

	if err := req.Validate(); err != nil {
		logrus.Debug("Verification request validation failed")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: err.Error()})
	}

	logrus.WithField("email", req.Email).Info("Verification code requested")
	outcome, err := c.authService.RequestVerification(ctx.Request().Context(), req.Email)
	if err != nil {
		return c.codeError(ctx, err, req.Email, "could not send verification email")
	}

	if outcome == service.OutcomeAlreadyDone {
		return ctx.JSON(http.StatusOK, httpdto.MessageResponse{Message: "email already verified"})
	}
	return ctx.JSON(http.StatusOK, httpdto.MessageResponse{Message: "verification code sent"})
}

func (c *AuthController) ConfirmVerification(ctx echo.Context) error {
	var req httpdto.VerificationConfirmRequest
	if err := ctx.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind verification confirm request")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid request body"})
	}

	if err := req.Validate(); err != nil {
		logrus.Debug("Verification confirm validation failed")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: err.Error()})
	}

	outcome, err := c.authService.ConfirmVerification(ctx.Request().Context(), req.Email, req.Code)
	if err != nil {
		return c.codeError(ctx, err, req.Email, "")
	}

	if outcome == service.OutcomeAlreadyDone {
		return ctx.JSON(http.StatusOK, httpdto.MessageResponse{Message: "email already verified"})
	}

	logrus.WithField("email", req.Email).Info("Email verified")
	return ctx.JSON(http.StatusOK, httpdto.MessageResponse{Message: "email verified"})
}

func (c *AuthController) RequestPasswordReset(ctx echo.Context) error {
	var req httpdto.PasswordResetRequest
	if err := ctx.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind password reset request")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid request body"})
	}

	if err := req.Validate(); err != nil {
		logrus.Debug("Password reset request validation failed")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: err.Error()})
	}

	logrus.WithField("email", req.Email).Info("Password reset requested")
	if _, err := c.authService.RequestPasswordReset(ctx.Request().Context(), req.Email); err != nil {
		return c.codeError(ctx, err, req.Email, "could not send reset email")
	}

	return ctx.JSON(http.StatusOK, httpdto.MessageResponse{Message: "password reset code sent"})
}

func (c *AuthController) ConfirmPasswordReset(ctx echo.Context) error {
	var req httpdto.PasswordResetConfirmRequest
	if err := ctx.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind password reset confirm request")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid request body"})
	}

	if err := req.Validate(); err != nil {
		logrus.Debug("Password reset confirm validation failed")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: err.Error()})
	}

	outcome, err := c.authService.ConfirmPasswordReset(ctx.Request().Context(), req.Email, req.Code, req.NewPassword)
	if err != nil {
		if errors.Is(err, service.ErrWeakPassword) {
			logrus.WithField("email", req.Email).Warn("Password reset failed: weak password")
			return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: err.Error()})
		}
		return c.codeError(ctx, err, req.Email, "")
	}

	if outcome == service.OutcomeAlreadyDone {
		return ctx.JSON(http.StatusOK, httpdto.MessageResponse{Message: "password already reset"})
	}

	logrus.WithField("email", req.Email).Info("Password reset successful")
	return ctx.JSON(http.StatusOK, httpdto.MessageResponse{Message: "password updated"})
}

// codeError maps the shared code-workflow failures to HTTP responses.
func (c *AuthController) codeError(ctx echo.Context, err error, email, deliveryMessage string) error {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		logrus.WithField("email", email).Warn("Code workflow failed: user not found")
		return ctx.JSON(http.StatusNotFound, httpdto.ErrorResponse{Error: "user not found"})
	case errors.Is(err, service.ErrCodeNotRequested):
		logrus.WithField("email", email).Warn("Code workflow failed: not requested")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "code not requested"})
	case errors.Is(err, service.ErrInvalidCode):
		logrus.WithField("email", email).Warn("Code workflow failed: invalid code")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid code"})
	case errors.Is(err, service.ErrCodeExpired):
		logrus.WithField("email", email).Warn("Code workflow failed: code expired")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "code expired"})
	case errors.Is(err, service.ErrCodeDelivery):
		logrus.WithError(err).WithField("email", email).Error("Code workflow failed: delivery")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: deliveryMessage})
	default:
		logrus.WithError(err).WithField("email", email).Error("Code workflow failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
	}
}
