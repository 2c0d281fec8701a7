package storage

import "time"

// ExecutionRecord is one durable row of execution history: the code a
// user ran, what came back, and when. Append-only audit data.
type ExecutionRecord struct {
	ID         string    `json:"id" db:"id"`
	UserID     string    `json:"user_id" db:"user_id"`
	Language   string    `json:"language" db:"language"`
	SourceText string    `json:"source_text" db:"source_text"`
	OutputText string    `json:"output_text,omitempty" db:"output_text"`
	ErrorText  string    `json:"error_text,omitempty" db:"error_text"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// User is the entitlement-bearing user record looked up by identity
// subject.
type User struct {
	UserID    string     `json:"user_id" db:"user_id"`
	Email     string     `json:"email,omitempty" db:"email"`
	Name      string     `json:"name,omitempty" db:"name"`
	IsPro     bool       `json:"is_pro" db:"is_pro"`
	ProSince  *time.Time `json:"pro_since,omitempty" db:"pro_since"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

// HistoryFilter provides criteria for querying execution history.
type HistoryFilter struct {
	UserID   string
	Language string
	Limit    int
	Offset   int
}
