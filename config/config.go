package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPHost string
	HTTPPort string

	MySQLDSN string

	JWTSecret      string
	JWTAlgorithm   string
	AccessTokenTTL time.Duration

	VerificationCodeTTL time.Duration
	ResetCodeTTL        time.Duration

	// RequireVerifiedEmail makes login reject accounts whose email was never
	// verified. The rejection is indistinguishable from bad credentials.
	RequireVerifiedEmail bool

	CORSOrigins []string

	LogLevel string
	LogJSON  bool

	SMTP           SMTPConfig
	PasswordPolicy PasswordPolicy
}

type SMTPConfig struct {
	Host        string
	Port        int
	From        string
	Username    string
	Password    string
	StartTLS    bool
	SendTimeout time.Duration
}

type PasswordPolicy struct {
	MinLength        int
	RequireUppercase bool
	RequireLowercase bool
	RequireNumber    bool
	RequireSpecial   bool
}

func (p PasswordPolicy) Validate(password string) error {
	if len(password) < p.MinLength {
		return fmt.Errorf("password must be at least %d characters long", p.MinLength)
	}

	var hasUpper, hasLower, hasNumber, hasSpecial bool
	for _, ch := range password {
		switch {
		case unicode.IsUpper(ch):
			hasUpper = true
		case unicode.IsLower(ch):
			hasLower = true
		case unicode.IsDigit(ch):
			hasNumber = true
		case unicode.IsPunct(ch) || unicode.IsSymbol(ch):
			hasSpecial = true
		}
	}

	var missing []string
	if p.RequireUppercase && !hasUpper {
		missing = append(missing, "uppercase letter")
	}
	if p.RequireLowercase && !hasLower {
		missing = append(missing, "lowercase letter")
	}
	if p.RequireNumber && !hasNumber {
		missing = append(missing, "number")
	}
	if p.RequireSpecial && !hasSpecial {
		missing = append(missing, "special character")
	}

	if len(missing) > 0 {
		return fmt.Errorf("password must contain at least one: %s", strings.Join(missing, ", "))
	}

	return nil
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignores error if not found)
	_ = godotenv.Load()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET environment variable is required")
	}

	mysqlDSN := os.Getenv("MYSQL_DSN")
	if mysqlDSN == "" {
		return nil, errors.New("MYSQL_DSN environment variable is required")
	}

	return &Config{
		HTTPHost:             getEnv("HTTP_HOST", ""),
		HTTPPort:             getEnv("HTTP_PORT", "8080"),
		MySQLDSN:             mysqlDSN,
		JWTSecret:            jwtSecret,
		JWTAlgorithm:         getEnv("JWT_ALGORITHM", "HS256"),
		AccessTokenTTL:       getDurationEnv("ACCESS_TOKEN_TTL", 30*time.Minute),
		VerificationCodeTTL:  getDurationEnv("VERIFICATION_CODE_TTL", 10*time.Minute),
		ResetCodeTTL:         getDurationEnv("RESET_CODE_TTL", 15*time.Minute),
		RequireVerifiedEmail: getBoolEnv("REQUIRE_VERIFIED_EMAIL", false),
		CORSOrigins:          getListEnv("CORS_ORIGINS", []string{"http://localhost:3000", "http://127.0.0.1:3000"}),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		LogJSON:              getBoolEnv("LOG_JSON", false),
		SMTP:                 loadSMTP(),
		PasswordPolicy:       loadPasswordPolicy(),
	}, nil
}

func (c *Config) DSN() string {
	return c.MySQLDSN
}

func loadSMTP() SMTPConfig {
	return SMTPConfig{
		Host:        getEnv("SMTP_HOST", "localhost"),
		Port:        getIntEnv("SMTP_PORT", 587),
		From:        getEnv("SMTP_FROM", "no-reply@campuslink.local"),
		Username:    getEnv("SMTP_USER", ""),
		Password:    getEnv("SMTP_PASSWORD", ""),
		StartTLS:    getBoolEnv("SMTP_STARTTLS", true),
		SendTimeout: getDurationEnv("SMTP_SEND_TIMEOUT", 10*time.Second),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDurationEnv accepts either a Go duration string ("90s", "10m") or a
// bare integer interpreted as minutes.
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		if minutes, err := strconv.Atoi(value); err == nil {
			return time.Duration(minutes) * time.Minute
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}

func loadPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength:        getIntEnv("PASSWORD_MIN_LENGTH", 8),
		RequireUppercase: getBoolEnv("PASSWORD_REQUIRE_UPPERCASE", false),
		RequireLowercase: getBoolEnv("PASSWORD_REQUIRE_LOWERCASE", false),
		RequireNumber:    getBoolEnv("PASSWORD_REQUIRE_NUMBER", false),
		RequireSpecial:   getBoolEnv("PASSWORD_REQUIRE_SPECIAL", false),
	}
}
