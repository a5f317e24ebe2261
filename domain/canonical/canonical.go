// Package canonical defines the backend-agnostic chat entity types.
package canonical

import (
	_ "embed"

	"github.com/Point72/chatom/core/model"
	"github.com/Point72/chatom/core/schema"
)

// Canonical type names.
const (
	Identifiable = "Identifiable"
	User         = "User"
	Channel      = "Channel"
	Activity     = "Activity"
	Presence     = "Presence"
)

// Channel types.
const (
	ChannelPublic       = "public"
	ChannelPrivate      = "private"
	ChannelDirect       = "direct"
	ChannelGroup        = "group"
	ChannelThread       = "thread"
	ChannelForum        = "forum"
	ChannelAnnouncement = "announcement"
	ChannelUnknown      = "unknown"
)

// Presence statuses.
const (
	StatusOnline    = "online"
	StatusIdle      = "idle"
	StatusDND       = "dnd"
	StatusOffline   = "offline"
	StatusInvisible = "invisible"
	StatusUnknown   = "unknown"
)

//go:embed types.yaml
var definitions []byte

// Types returns the canonical type definitions in dependency order.
func Types() ([]schema.Type, error) {
	return schema.Parse(definitions)
}

// IsComplete reports whether an identifiable instance has an id.
func IsComplete(inst *model.Instance) bool {
	return inst.String("id") != ""
}

// IsResolvable reports whether a backend could look the entity up,
// i.e. it has an id or a name.
func IsResolvable(inst *model.Instance) bool {
	return inst.String("id") != "" || inst.String("name") != ""
}

// DisplayName returns the best human-readable name of a user.
func DisplayName(user *model.Instance) string {
	for _, field := range []string{"name", "handle", "id"} {
		if s := user.String(field); s != "" {
			return s
		}
	}
	return ""
}

// MentionName returns the name used when mentioning a user.
func MentionName(user *model.Instance) string {
	if h := user.String("handle"); h != "" {
		return h
	}
	return user.String("name")
}

// IsOnline reports whether a presence is online, idle or do-not-disturb.
func IsOnline(presence *model.Instance) bool {
	switch presence.String("status") {
	case StatusOnline, StatusIdle, StatusDND:
		return true
	}
	return false
}

// IsAvailable reports whether a presence can be messaged.
func IsAvailable(presence *model.Instance) bool {
	switch presence.String("status") {
	case StatusOnline, StatusIdle:
		return true
	}
	return false
}

// IsDirectMessage reports whether a channel is a DM or group DM.
func IsDirectMessage(channel *model.Instance) bool {
	switch channel.String("channel_type") {
	case ChannelDirect, ChannelGroup:
		return true
	}
	return false
}

// IsThread reports whether a channel is a thread.
func IsThread(channel *model.Instance) bool {
	return channel.String("channel_type") == ChannelThread
}

// ParentID returns the parent channel id, or "".
func ParentID(channel *model.Instance) string {
	parent, ok := channel.Nested("parent")
	if !ok {
		return ""
	}
	id, _ := parent.Get("id")
	s, _ := id.(string)
	return s
}
