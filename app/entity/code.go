package entity

import "database/sql"

// CodeRecord is the shared shape behind the email verification and password
// reset rows. Code and ExpiresAt are set only while a code is outstanding;
// Done marks the terminal success state and DoneAt records when it was
// reached (verified_at / used_at).
type CodeRecord struct {
	ID        uint64
	OwnerID   uint64
	Code      sql.NullString
	ExpiresAt sql.NullTime
	Done      bool
	DoneAt    sql.NullTime
}
