package auth

import "time"

// CodeEntry is a pending one-time code. Only the hash of the code is stored.
type CodeEntry struct {
	Phone     string
	CodeHash  string
	ExpiresAt time.Time
	Attempts  int
}

// CodeRepo stores at most one pending code per phone.
type CodeRepo interface {
	Upsert(entry *CodeEntry) error
	Get(phone string) (*CodeEntry, error) // ErrCodeNotFound when absent
	Delete(phone string) error
}
