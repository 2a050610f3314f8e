package entity

import (
	"database/sql"
	"time"
)

type User struct {
	ID           uint64
	Email        string
	Username     string
	Name         sql.NullString
	PasswordHash string
	CreatedAt    time.Time
}
