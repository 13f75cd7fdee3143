package domain

import (
	"time"

	providerdomain "bark/internal/modules/provider/domain"
)

// SavedConnection is one remembered provider connection. Passwords are
// stripped before a connection ever reaches the store.
type SavedConnection struct {
	ID       string
	Plugin   string
	Config   providerdomain.Config
	LastUsed time.Time
}
