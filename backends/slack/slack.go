// Package slack defines the Slack variants of the canonical types.
package slack

import (
	_ "embed"

	"github.com/Point72/chatom/core/backend"
	"github.com/Point72/chatom/core/model"
)

// ID is the backend identifier.
const ID = "slack"

// Variant type names.
const (
	User     = "SlackUser"
	Channel  = "SlackChannel"
	Presence = "SlackPresence"
)

//go:embed types.yaml
var definitions []byte

// New returns the Slack backend module.
func New() backend.Module { return backend.Define(ID, definitions) }

// MentionName returns the best name to mention a user by.
func MentionName(user *model.Instance) string {
	for _, field := range []string{"display_name", "real_name", "handle", "name"} {
		if s := user.String(field); s != "" {
			return s
		}
	}
	return ""
}

// IsGuest reports whether a user is a single- or multi-channel guest.
func IsGuest(user *model.Instance) bool {
	return user.Bool("is_restricted") || user.Bool("is_ultra_restricted")
}
