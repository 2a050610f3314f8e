package cmd

import (
	"database/sql"
	"net"
	"net/http"

	"github.com/campuslink/auth-service/app/controller"
	"github.com/campuslink/auth-service/app/mailer"
	"github.com/campuslink/auth-service/app/middleware"
	"github.com/campuslink/auth-service/app/repository"
	"github.com/campuslink/auth-service/app/service"
	"github.com/campuslink/auth-service/config"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Run:   runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if err := configureLogging(cfg); err != nil {
		logrus.WithError(err).Fatal("Failed to configure logging")
	}

	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logrus.WithError(err).Fatal("Failed to ping database")
	}

	smtpMailer, err := mailer.NewSMTPMailer(cfg.SMTP)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to configure mailer")
	}

	tokens, err := service.NewTokenService(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to configure token service")
	}

	userRepo := repository.NewUserRepository(db)
	verificationRepo := repository.NewVerificationRepository(db)

	verifyEngine := service.NewCodeEngine(db,
		func(tx repository.DBTX) service.CodeStore { return repository.NewVerificationRepository(tx) },
		smtpMailer,
		service.CodePolicy{
			Purpose:      service.PurposeVerification,
			TTL:          cfg.VerificationCodeTTL,
			SkipWhenDone: true,
		},
		cfg.SMTP.SendTimeout,
	)
	resetEngine := service.NewCodeEngine(db,
		func(tx repository.DBTX) service.CodeStore { return repository.NewPasswordResetRepository(tx) },
		smtpMailer,
		service.CodePolicy{
			Purpose: service.PurposeReset,
			TTL:     cfg.ResetCodeTTL,
		},
		cfg.SMTP.SendTimeout,
	)

	authService := service.NewAuthService(userRepo, verificationRepo, tokens, verifyEngine, resetEngine, cfg)

	startHTTPServer(cfg, authService)
}

func startHTTPServer(cfg *config.Config, authService service.AuthService) {
	e := echo.New()
	defer e.Close()
	e.HideBanner = true

	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogRemoteIP:  true,
		LogLatency:   true,
		LogUserAgent: true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := logrus.Fields{
				"remote_ip":  v.RemoteIP,
				"host":       v.Host,
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"latency_ns": v.Latency.Nanoseconds(),
				"user_agent": v.UserAgent,
				"request_id": v.RequestID,
			}
			entry := logrus.WithFields(fields)
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}
			entry.Info("http_request")
			return nil
		},
	}))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowCredentials: true,
	}))

	authController := controller.NewAuthController(authService)
	userController := controller.NewUserController(authService)
	authMiddleware := middleware.NewAuthMiddleware(authService)

	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	e.POST("/signup", authController.Signup)
	e.POST("/login", authController.Login)
	e.POST("/verification/request", authController.RequestVerification)
	e.POST("/verification/confirm", authController.ConfirmVerification)
	e.POST("/password/forgot", authController.RequestPasswordReset)
	e.POST("/password/reset", authController.ConfirmPasswordReset)

	protected := e.Group("")
	protected.Use(authMiddleware.RequireAuth)
	protected.GET("/me", userController.Me)
	protected.GET("/users/search", userController.Search)

	httpAddr := net.JoinHostPort(cfg.HTTPHost, cfg.HTTPPort)
	logrus.WithField("addr", httpAddr).Info("Starting HTTP server")
	if err := e.Start(httpAddr); err != nil {
		logrus.WithError(err).Fatal("Failed to start HTTP server")
	}
}
