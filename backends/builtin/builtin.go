// Package builtin lists the backend modules shipped with chatom.
package builtin

import (
	"fmt"
	"sort"

	"github.com/Point72/chatom/backends/discord"
	"github.com/Point72/chatom/backends/email"
	"github.com/Point72/chatom/backends/irc"
	"github.com/Point72/chatom/backends/matrix"
	"github.com/Point72/chatom/backends/slack"
	"github.com/Point72/chatom/backends/symphony"
	"github.com/Point72/chatom/core/backend"
)

// All returns every built-in module in registration order.
func All() []backend.Module {
	return []backend.Module{
		discord.New(),
		slack.New(),
		symphony.New(),
		matrix.New(),
		irc.New(),
		email.New(),
	}
}

// Modules returns the modules with the given ids, keeping registration
// order. No ids selects all modules.
func Modules(ids ...string) ([]backend.Module, error) {
	all := All()
	if len(ids) == 0 {
		return all, nil
	}

	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}

	var out []backend.Module
	for _, m := range all {
		if want[m.ID()] {
			out = append(out, m)
			delete(want, m.ID())
		}
	}
	if len(want) > 0 {
		unknown := make([]string, 0, len(want))
		for id := range want {
			unknown = append(unknown, id)
		}
		sort.Strings(unknown)
		return nil, fmt.Errorf("unknown backends %v (available: %v)", unknown, backend.IDs(all))
	}
	return out, nil
}
