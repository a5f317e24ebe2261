// Package email defines the email variants of the canonical types.
// Channels map to IMAP mailbox folders.
package email

import (
	_ "embed"
	"strings"

	"github.com/Point72/chatom/core/backend"
	"github.com/Point72/chatom/core/model"
)

// ID is the backend identifier.
const ID = "email"

// Variant type names.
const (
	User     = "EmailUser"
	Channel  = "EmailChannel"
	Presence = "EmailPresence"
)

//go:embed types.yaml
var definitions []byte

// New returns the email backend module.
func New() backend.Module { return backend.Define(ID, definitions) }

// FullName joins first and last name, falling back to display name and name.
func FullName(user *model.Instance) string {
	var parts []string
	for _, field := range []string{"first_name", "last_name"} {
		if s := user.String(field); s != "" {
			parts = append(parts, s)
		}
	}
	if full := strings.Join(parts, " "); full != "" {
		return full
	}
	if d := user.String("display_name"); d != "" {
		return d
	}
	return user.String("name")
}

// FormattedAddress returns "Name <addr>", or whichever part is set.
func FormattedAddress(user *model.Instance) string {
	name, addr := FullName(user), user.String("email")
	if name != "" && addr != "" {
		return name + " <" + addr + ">"
	}
	if addr != "" {
		return addr
	}
	return name
}
