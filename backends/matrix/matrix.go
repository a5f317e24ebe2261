// Package matrix defines the Matrix variants of the canonical types.
package matrix

import (
	_ "embed"
	"strings"

	"github.com/Point72/chatom/core/backend"
	"github.com/Point72/chatom/core/model"
)

// ID is the backend identifier.
const ID = "matrix"

// Variant type names.
const (
	User     = "MatrixUser"
	Channel  = "MatrixChannel"
	Presence = "MatrixPresence"
)

//go:embed types.yaml
var definitions []byte

// New returns the Matrix backend module.
func New() backend.Module { return backend.Define(ID, definitions) }

// FullUserID returns the @localpart:server id, building it from handle
// and homeserver when user_id is unset.
func FullUserID(user *model.Instance) string {
	if id := user.String("user_id"); id != "" {
		return id
	}
	handle, server := user.String("handle"), user.String("homeserver")
	if handle != "" && server != "" {
		return "@" + handle + ":" + server
	}
	if handle != "" {
		return handle
	}
	return user.String("id")
}

// Localpart returns the part of the user id between @ and the colon.
func Localpart(user *model.Instance) string {
	id := user.String("user_id")
	if strings.HasPrefix(id, "@") && strings.Contains(id, ":") {
		local, _, _ := strings.Cut(id[1:], ":")
		return local
	}
	return user.String("handle")
}

// ServerName returns the homeserver domain of a user.
func ServerName(user *model.Instance) string {
	if _, server, ok := strings.Cut(user.String("user_id"), ":"); ok {
		return server
	}
	return user.String("homeserver")
}
