package entity

import (
	"context"
	"strings"
	"time"
)

// RelayConfig is the single active SMTP relay configuration.
type RelayConfig struct {
	Host      string    `json:"host"`
	Port      int       `json:"port"`
	Username  string    `json:"username"`
	Password  string    `json:"password"`
	FromEmail string    `json:"from_email"`
	FromName  string    `json:"from_name"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Missing lists the required fields that are empty, in a stable order.
func (c *RelayConfig) Missing() []string {
	var missing []string
	if strings.TrimSpace(c.Host) == "" {
		missing = append(missing, "host")
	}
	if c.Port <= 0 {
		missing = append(missing, "port")
	}
	if strings.TrimSpace(c.Username) == "" {
		missing = append(missing, "username")
	}
	if strings.TrimSpace(c.Password) == "" {
		missing = append(missing, "password")
	}
	if strings.TrimSpace(c.FromEmail) == "" {
		missing = append(missing, "from_email")
	}
	return missing
}

// RelayConfigRepository stores the config in a single addressable slot.
// Get returns ErrNotFound when the slot is absent or cannot be decoded;
// Put creates or replaces it.
type RelayConfigRepository interface {
	Get(ctx context.Context) (*RelayConfig, error)
	Put(ctx context.Context, cfg *RelayConfig) error
}
