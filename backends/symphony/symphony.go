// Package symphony defines the Symphony variants of the canonical types.
package symphony

import (
	_ "embed"
	"strings"

	"github.com/Point72/chatom/core/backend"
	"github.com/Point72/chatom/core/model"
)

// ID is the backend identifier.
const ID = "symphony"

// Variant type names.
const (
	User     = "SymphonyUser"
	Channel  = "SymphonyChannel"
	Presence = "SymphonyPresence"
)

//go:embed types.yaml
var definitions []byte

// New returns the Symphony backend module.
func New() backend.Module { return backend.Define(ID, definitions) }

// FullName joins first and last name, falling back to the display name
// and then the name.
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
