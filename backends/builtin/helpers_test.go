package builtin

import (
	"testing"

	"github.com/Point72/chatom/backends/discord"
	"github.com/Point72/chatom/backends/email"
	"github.com/Point72/chatom/backends/irc"
	"github.com/Point72/chatom/backends/matrix"
	"github.com/Point72/chatom/backends/slack"
	"github.com/Point72/chatom/backends/symphony"
	"github.com/Point72/chatom/core/mapping"
	"github.com/Point72/chatom/core/model"
)

func user(typeName string, kv ...any) *model.Instance {
	return model.New(typeName, mapping.Of(kv...))
}

func TestDiscordHelpers(t *testing.T) {
	legacy := user(discord.User, "id", "1", "handle", "ann", "discriminator", "0420")
	if got := discord.FullUsername(legacy); got != "ann#0420" {
		t.Errorf("FullUsername() = %q", got)
	}
	modern := user(discord.User, "id", "1", "handle", "ann", "discriminator", "0", "global_name", "Ann B")
	if got := discord.FullUsername(modern); got != "ann" {
		t.Errorf("FullUsername() = %q", got)
	}
	if got := discord.DisplayName(modern); got != "Ann B" {
		t.Errorf("DisplayName() = %q", got)
	}
	if got := discord.DisplayName(legacy); got != "ann" {
		t.Errorf("DisplayName() = %q", got)
	}
}

func TestSlackHelpers(t *testing.T) {
	u := user(slack.User, "id", "U1", "real_name", "Ann B", "handle", "ann")
	if got := slack.MentionName(u); got != "Ann B" {
		t.Errorf("MentionName() = %q", got)
	}
	if slack.IsGuest(u) {
		t.Error("IsGuest() = true for full member")
	}
	if !slack.IsGuest(user(slack.User, "is_ultra_restricted", true)) {
		t.Error("IsGuest() = false for guest")
	}
}

func TestSymphonyAndEmailNames(t *testing.T) {
	tests := []struct {
		kv   []any
		want string
	}{
		{[]any{"first_name", "Ann", "last_name", "Lee", "display_name", "AL"}, "Ann Lee"},
		{[]any{"last_name", "Lee"}, "Lee"},
		{[]any{"display_name", "AL", "name", "ann"}, "AL"},
		{[]any{"name", "ann"}, "ann"},
	}
	for _, tt := range tests {
		if got := symphony.FullName(user(symphony.User, tt.kv...)); got != tt.want {
			t.Errorf("symphony.FullName(%v) = %q, want %q", tt.kv, got, tt.want)
		}
		if got := email.FullName(user(email.User, tt.kv...)); got != tt.want {
			t.Errorf("email.FullName(%v) = %q, want %q", tt.kv, got, tt.want)
		}
	}

	addr := user(email.User, "first_name", "Ann", "email", "ann@example.com")
	if got := email.FormattedAddress(addr); got != "Ann <ann@example.com>" {
		t.Errorf("FormattedAddress() = %q", got)
	}
	if got := email.FormattedAddress(user(email.User, "email", "ann@example.com")); got != "ann@example.com" {
		t.Errorf("FormattedAddress() = %q", got)
	}
}

func TestMatrixHelpers(t *testing.T) {
	full := user(matrix.User, "user_id", "@ann:example.org", "handle", "x")
	if got := matrix.FullUserID(full); got != "@ann:example.org" {
		t.Errorf("FullUserID() = %q", got)
	}
	if got := matrix.Localpart(full); got != "ann" {
		t.Errorf("Localpart() = %q", got)
	}
	if got := matrix.ServerName(full); got != "example.org" {
		t.Errorf("ServerName() = %q", got)
	}

	built := user(matrix.User, "handle", "bob", "homeserver", "matrix.org")
	if got := matrix.FullUserID(built); got != "@bob:matrix.org" {
		t.Errorf("FullUserID() = %q", got)
	}
	if got := matrix.ServerName(built); got != "matrix.org" {
		t.Errorf("ServerName() = %q", got)
	}
	if got := matrix.FullUserID(user(matrix.User, "id", "42")); got != "42" {
		t.Errorf("FullUserID() = %q", got)
	}
}

func TestIRCHelpers(t *testing.T) {
	u := user(irc.User, "nick", "ann", "ident", "annl", "host", "example.com", "modes", "+io")
	if got := irc.Hostmask(u); got != "ann!annl@example.com" {
		t.Errorf("Hostmask() = %q", got)
	}
	if !irc.IsOperator(u) {
		t.Error("IsOperator() = false")
	}
	if irc.IsOperator(user(irc.User, "modes", "+i")) {
		t.Error("IsOperator() = true")
	}
}

func TestIRCChannelName(t *testing.T) {
	tests := []struct {
		kv   []any
		want string
	}{
		{[]any{"name", "#go"}, "#go"},
		{[]any{"name", "go"}, "#go"},
		{[]any{"name", "&local"}, "&local"},
		{[]any{"id", "ops"}, "#ops"},
		{nil, ""},
	}
	for _, tt := range tests {
		if got := irc.ChannelName(user(irc.Channel, tt.kv...)); got != tt.want {
			t.Errorf("ChannelName(%v) = %q, want %q", tt.kv, got, tt.want)
		}
	}
}
