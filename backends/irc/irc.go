// Package irc defines the IRC variants of the canonical types.
package irc

import (
	_ "embed"
	"strings"

	"github.com/Point72/chatom/core/backend"
	"github.com/Point72/chatom/core/model"
)

// ID is the backend identifier.
const ID = "irc"

// Variant type names.
const (
	User     = "IRCUser"
	Channel  = "IRCChannel"
	Presence = "IRCPresence"
)

//go:embed types.yaml
var definitions []byte

// New returns the IRC backend module.
func New() backend.Module { return backend.Define(ID, definitions) }

// Hostmask returns nick!ident@host.
func Hostmask(user *model.Instance) string {
	return user.String("nick") + "!" + user.String("ident") + "@" + user.String("host")
}

// ChannelName returns the channel name with its # prefix.
func ChannelName(ch *model.Instance) string {
	name := ch.String("name")
	if name == "" {
		name = ch.String("id")
	}
	if name == "" || strings.HasPrefix(name, "#") || strings.HasPrefix(name, "&") {
		return name
	}
	return "#" + name
}

// IsOperator reports whether the user has the o mode.
func IsOperator(user *model.Instance) bool {
	return strings.Contains(user.String("modes"), "o")
}
