// Package discord defines the Discord variants of the canonical types.
package discord

import (
	_ "embed"

	"github.com/Point72/chatom/core/backend"
	"github.com/Point72/chatom/core/model"
)

// ID is the backend identifier.
const ID = "discord"

// Variant type names.
const (
	User     = "DiscordUser"
	Channel  = "DiscordChannel"
	Presence = "DiscordPresence"
)

//go:embed types.yaml
var definitions []byte

// New returns the Discord backend module.
func New() backend.Module { return backend.Define(ID, definitions) }

// DisplayName returns the global name, name, handle or id, whichever is
// set first.
func DisplayName(user *model.Instance) string {
	if g := user.String("global_name"); g != "" {
		return g
	}
	for _, field := range []string{"name", "handle", "id"} {
		if s := user.String(field); s != "" {
			return s
		}
	}
	return ""
}

// FullUsername returns handle#discriminator for legacy accounts and the
// bare handle otherwise.
func FullUsername(user *model.Instance) string {
	d := user.String("discriminator")
	if d != "" && d != "0" {
		return user.String("handle") + "#" + d
	}
	return user.String("handle")
}
