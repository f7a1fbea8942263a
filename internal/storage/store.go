package storage

import "github.com/VikramTex/filedesk-backend/internal/models"

// SessionStore is the injected session store keyed by sender phone number.
// Keeping it behind an interface lets the conversation core run against a
// fake in tests and leaves room for a durable implementation later.
type SessionStore interface {
	Get(phone string) (*models.Session, bool)
	Put(phone string, session *models.Session)
	Delete(phone string)
	ActiveCount() int
}
