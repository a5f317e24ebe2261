package conversion_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Point72/chatom/adapters/clock"
	"github.com/Point72/chatom/backends/builtin"
	"github.com/Point72/chatom/core/backend"
	"github.com/Point72/chatom/core/catalog"
	"github.com/Point72/chatom/core/conversion"
	"github.com/Point72/chatom/core/mapping"
	"github.com/Point72/chatom/core/model"
	"github.com/Point72/chatom/core/provider"
	"github.com/Point72/chatom/core/registry"
	"github.com/Point72/chatom/core/schema"
	"github.com/Point72/chatom/domain/canonical"
	"github.com/Point72/chatom/ports"
)

type engine struct {
	conv     *conversion.Converter
	prov     *provider.Provider
	reg      *registry.Registry
	cat      *catalog.Catalog
	observed *recorder
}

// newEngine builds the built-in catalog plus any extra types, with a
// lazily populated registry.
func newEngine(t *testing.T, extra ...schema.Type) *engine {
	t.Helper()

	cat := catalog.New()
	types, err := canonical.Types()
	require.NoError(t, err)
	require.NoError(t, cat.AddAll(types))
	require.NoError(t, backend.Install(cat, builtin.All()...))
	require.NoError(t, cat.AddAll(extra))
	require.NoError(t, cat.Check())

	reg := registry.New(registry.WithPopulator(backend.Populator(builtin.All()...)))
	prov := provider.New(cat)
	rec := &recorder{}
	conv := conversion.New(reg, cat, prov, conversion.WithObserver(rec))

	return &engine{conv: conv, prov: prov, reg: reg, cat: cat, observed: rec}
}

func (e *engine) make(t *testing.T, typeName string, kv ...any) *model.Instance {
	t.Helper()
	inst, err := e.prov.Construct(typeName, mapping.Of(kv...))
	require.NoError(t, err, "construct %s", typeName)
	return inst
}

type observation struct {
	op, backend, outcome string
}

type recorder struct {
	mu  sync.Mutex
	got []observation
}

func (r *recorder) ObserveConversion(op, backend, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, observation{op, backend, outcome})
}

func (r *recorder) last() observation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.got[len(r.got)-1]
}

func field(t *testing.T, inst *model.Instance, name string) any {
	t.Helper()
	v, ok := inst.Get(name)
	require.True(t, ok, "field %q missing from %s: %s", name, inst.TypeName(), spew.Sdump(inst.Fields().ToMap()))
	return v
}

func TestPromote_CanonicalToVariant(t *testing.T) {
	e := newEngine(t)
	user := e.make(t, canonical.User, "id", "U1", "name", "Ann")

	got, err := e.conv.Promote(user, "slack", nil)
	require.NoError(t, err)

	assert.Equal(t, "SlackUser", got.TypeName())
	assert.Equal(t, "U1", field(t, got, "id"))
	assert.Equal(t, "Ann", field(t, got, "name"))
	assert.Equal(t, "", field(t, got, "handle"))
	assert.Equal(t, "", field(t, got, "email"))
	assert.Equal(t, "", field(t, got, "team_id"))
	assert.Equal(t, false, field(t, got, "is_admin"))
	assert.Equal(t, observation{ports.OpPromote, "slack", ports.OutcomeOK}, e.observed.last())
}

func TestPromote_AppliesVariantDefaults(t *testing.T) {
	e := newEngine(t)
	user := e.make(t, canonical.User, "id", "123", "name", "Ann")

	got, err := e.conv.Promote(user, "discord", nil)
	require.NoError(t, err)
	assert.Equal(t, "DiscordUser", got.TypeName())
	assert.Equal(t, "0", field(t, got, "discriminator"))
	assert.Nil(t, field(t, got, "global_name"))
}

func TestValidate_MissingRequired(t *testing.T) {
	e := newEngine(t)
	user := e.make(t, canonical.User, "id", "")

	result, err := e.conv.ValidateForBackend(user, "slack")
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, []string{"id"}, result.MissingRequired)
	assert.Empty(t, result.InvalidFields)
	assert.Equal(t, observation{ports.OpValidate, "slack", ports.OutcomeInvalid}, e.observed.last())

	ok, err := e.conv.CanPromote(user, "slack")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestValidate_InvalidFields(t *testing.T) {
	e := newEngine(t)
	// Bypass the provider to get a value no constructor would accept.
	user := model.New(canonical.User, mapping.Of("id", "U1", "is_bot", "yes"))

	result, err := e.conv.ValidateForBackend(user, "slack")
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Empty(t, result.MissingRequired)
	assert.Equal(t, map[string]string{"is_bot": "must be a boolean"}, result.InvalidFields)
}

func TestValidate_WarnsAboutDroppedFields(t *testing.T) {
	e := newEngine(t)
	du := e.make(t, "DiscordUser", "id", "1", "discriminator", "1234")

	result, err := e.conv.ValidateForBackend(du, "slack")
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Contains(t, result.Warnings, `field "discriminator" is not defined on SlackUser and would be dropped`)
}

func TestPromote_NoCrossBackendCarryover(t *testing.T) {
	e := newEngine(t)
	du := e.make(t, "DiscordUser", "id", "1", "name", "Ann", "discriminator", "1234")

	su, err := e.conv.Promote(du, "slack", nil)
	require.NoError(t, err)
	assert.Equal(t, "SlackUser", su.TypeName())
	assert.Equal(t, "1", field(t, su, "id"))
	assert.Equal(t, "Ann", field(t, su, "name"))
	_, has := su.Get("discriminator")
	assert.False(t, has, "discriminator leaked into SlackUser")

	back, err := e.conv.Promote(su, "discord", nil)
	require.NoError(t, err)
	assert.Equal(t, "0", field(t, back, "discriminator"), "discord fields are not restored through slack")
}

func TestDemote_VariantToCanonical(t *testing.T) {
	e := newEngine(t)
	su := e.make(t, "SlackUser", "id", "U1", "name", "Ann", "team_id", "T1")

	got, err := e.conv.Demote(su)
	require.NoError(t, err)
	assert.Equal(t, canonical.User, got.TypeName())
	assert.Equal(t, "U1", field(t, got, "id"))
	assert.Equal(t, "Ann", field(t, got, "name"))
	_, has := got.Get("team_id")
	assert.False(t, has)
	assert.Equal(t, observation{ports.OpDemote, "slack", ports.OutcomeOK}, e.observed.last())
}

func TestBackendNotFound(t *testing.T) {
	e := newEngine(t)
	user := e.make(t, canonical.User, "id", "1")

	_, ok := e.reg.LookupVariant(canonical.User, "unknown")
	assert.False(t, ok)

	_, err := e.conv.Promote(user, "unknown", nil)
	require.Error(t, err)

	var notFound *conversion.BackendNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, canonical.User, notFound.Canonical)
	assert.Equal(t, "unknown", notFound.Backend)
	assert.EqualError(t, err, "no unknown type registered for User")

	assert.ErrorIs(t, err, conversion.ErrConversion)
	var convErr *conversion.ConversionError
	assert.ErrorAs(t, err, &convErr)

	assert.Equal(t, ports.OpPromote, notFound.Op)
	assert.Equal(t, ports.OpPromote, convErr.Op)

	_, err = e.conv.ValidateForBackend(user, "unknown")
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, ports.OpValidate, notFound.Op)
	require.ErrorAs(t, err, &convErr)
	assert.Equal(t, ports.OpValidate, convErr.Op)
	_, err = e.conv.CanPromote(user, "unknown")
	assert.ErrorAs(t, err, &notFound)
	assert.Equal(t, observation{ports.OpValidate, "unknown", ports.OutcomeBackendNotFound}, e.observed.last())
}

func TestBackendsInRegistrationOrder(t *testing.T) {
	r := registry.New()
	require.NoError(t, r.Register("discord", "User", "DiscordUser"))
	require.NoError(t, r.Register("slack", "User", "SlackUser"))
	require.NoError(t, r.Register("symphony", "User", "SymphonyUser"))
	assert.Equal(t, []string{"discord", "slack", "symphony"}, r.Backends("User"))

	e := newEngine(t)
	assert.Equal(t, []string{"discord", "slack", "symphony", "matrix", "irc", "email"}, e.reg.Backends(canonical.User))
	assert.Equal(t, []string{"discord", "slack", "symphony", "matrix", "irc", "email"}, e.reg.Backends(canonical.Channel))
}

func samples(t *testing.T, e *engine) map[string]*model.Instance {
	t.Helper()
	seen := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	return map[string]*model.Instance{
		canonical.User: e.make(t, canonical.User,
			"id", "U1", "name", "Ann", "handle", "ann", "email", "ann@example.com", "is_bot", false),
		canonical.Channel: e.make(t, canonical.Channel,
			"id", "C1", "name", "general", "topic", "chatter", "channel_type", "public",
			"member_count", 3, "parent", mapping.Of("id", "C0", "name", "root")),
		canonical.Presence: e.make(t, canonical.Presence,
			"user", mapping.Of("id", "U1", "name", "Ann"), "status", "online",
			"status_text", "hi", "last_seen", seen, "is_mobile", true,
			"activity", mapping.Of("name", "chess", "activity_type", "playing")),
	}
}

func TestRoundTripLaw(t *testing.T) {
	e := newEngine(t)
	byType := samples(t, e)

	entries := e.reg.Entries()
	require.NotEmpty(t, entries)

	for _, entry := range entries {
		entry := entry
		t.Run(entry.Variant, func(t *testing.T) {
			orig := byType[entry.Canonical]
			require.NotNil(t, orig, "no sample for %s", entry.Canonical)

			promoted, err := e.conv.Promote(orig, entry.Backend, nil)
			require.NoError(t, err)
			assert.Equal(t, entry.Variant, promoted.TypeName())

			demoted, err := e.conv.Demote(promoted)
			require.NoError(t, err)
			assert.Equal(t, entry.Canonical, demoted.TypeName())

			names, err := e.prov.FieldNames(entry.Canonical)
			require.NoError(t, err)
			for _, name := range names {
				want, _ := orig.Get(name)
				got, _ := demoted.Get(name)
				assert.True(t, mapping.Of("v", want).Equal(mapping.Of("v", got)),
					"field %s: got %s, want %s", name, spew.Sdump(got), spew.Sdump(want))
			}
			assert.True(t, demoted.Equal(orig))
		})
	}
}

func TestValidityAgreement(t *testing.T) {
	e := newEngine(t)
	instances := []*model.Instance{
		e.make(t, canonical.User, "id", "U1"),
		e.make(t, canonical.User),
		model.New(canonical.User, mapping.Of("id", 5)),
		e.make(t, canonical.Channel, "name", "general"),
		e.make(t, canonical.Presence, "status", "dnd"),
	}

	for _, inst := range instances {
		for _, b := range e.reg.Backends(inst.TypeName()) {
			result, err := e.conv.ValidateForBackend(inst, b)
			require.NoError(t, err)
			ok, err := e.conv.CanPromote(inst, b)
			require.NoError(t, err)
			assert.Equal(t, result.Valid, ok, "%s -> %s", inst.TypeName(), b)
			assert.Equal(t, result.IsValid(), result.Valid)
		}
	}
}

func TestLookupFailureAgreement(t *testing.T) {
	e := newEngine(t)
	backends := []string{"discord", "slack", "symphony", "matrix", "irc", "email", "teams"}

	for name, inst := range samples(t, e) {
		for _, b := range backends {
			_, registered := e.reg.LookupVariant(e.conv.Resolve(name), b)
			_, err := e.conv.Promote(inst, b, nil)

			var notFound *conversion.BackendNotFoundError
			assert.Equal(t, !registered, errors.As(err, &notFound), "%s -> %s: %v", name, b, err)
		}
	}
}

func TestDemote_CanonicalReturnsCopy(t *testing.T) {
	e := newEngine(t)
	user := e.make(t, canonical.User, "id", "U1", "name", "Ann")

	got, err := e.conv.Demote(user)
	require.NoError(t, err)
	assert.True(t, got.Equal(user))
	assert.NotSame(t, user, got)
}

func TestDemote_UnregisteredType(t *testing.T) {
	e := newEngine(t)
	activity := e.make(t, canonical.Activity, "name", "chess")

	_, err := e.conv.Demote(activity)
	require.Error(t, err)
	assert.EqualError(t, err, "Activity is not a registered backend type")
	assert.ErrorIs(t, err, conversion.ErrConversion)

	var notFound *conversion.BackendNotFoundError
	assert.False(t, errors.As(err, &notFound))
	assert.Equal(t, observation{ports.OpDemote, "", ports.OutcomeError}, e.observed.last())
}

func TestPromote_ExtraFieldsWin(t *testing.T) {
	e := newEngine(t)
	user := e.make(t, canonical.User, "id", "U1", "name", "Ann")
	extra := map[string]any{"name": "Bob", "team_id": "T9", "is_admin": true}

	got, err := e.conv.Promote(user, "slack", extra)
	require.NoError(t, err)
	assert.Equal(t, "Bob", field(t, got, "name"))
	assert.Equal(t, "T9", field(t, got, "team_id"))
	assert.Equal(t, true, field(t, got, "is_admin"))

	assert.Equal(t, "Ann", user.String("name"), "source instance mutated")
	assert.Equal(t, map[string]any{"name": "Bob", "team_id": "T9", "is_admin": true}, extra, "extra mutated")
}

func TestPromote_ConstructionFailure(t *testing.T) {
	e := newEngine(t)
	user := e.make(t, canonical.User, "name", "Ann")

	_, err := e.conv.Promote(user, "slack", map[string]any{"tz_offset": "UTC"})
	require.Error(t, err)

	var convErr *conversion.ConversionError
	require.ErrorAs(t, err, &convErr)
	assert.Equal(t, "User", convErr.Source)
	assert.Equal(t, "SlackUser", convErr.Target)
	assert.Equal(t, []string{"id"}, convErr.Errors.Paths(schema.KindMissing))
	assert.Equal(t, []string{"tz_offset"}, convErr.Errors.Paths(schema.KindType))
	assert.EqualError(t, err, "failed to promote User to SlackUser: id: field required; tz_offset: must be an integer")

	var fieldErrs schema.FieldErrors
	assert.ErrorAs(t, err, &fieldErrs)
	assert.Equal(t, observation{ports.OpPromote, "slack", ports.OutcomeError}, e.observed.last())
}

func TestPromote_ConstraintViolation(t *testing.T) {
	e := newEngine(t)
	ch := e.make(t, canonical.Channel, "id", "C1")

	_, err := e.conv.Promote(ch, "discord", map[string]any{"user_limit": 120})
	var convErr *conversion.ConversionError
	require.ErrorAs(t, err, &convErr)
	assert.Equal(t, []string{"user_limit"}, convErr.Errors.Paths(schema.KindConstraint))
}

func TestValidate_IsPure(t *testing.T) {
	e := newEngine(t)
	for _, inst := range samples(t, e) {
		before := inst.Copy()
		for _, b := range e.reg.Backends(inst.TypeName()) {
			_, err := e.conv.ValidateForBackend(inst, b)
			require.NoError(t, err)
			_, err = e.conv.CanPromote(inst, b)
			require.NoError(t, err)
		}
		assert.True(t, before.Equal(inst), "%s mutated by validation", inst.TypeName())
	}
}

func TestSubclassResolution(t *testing.T) {
	e := newEngine(t,
		schema.Type{Name: "BotUser", Family: schema.FamilyUser, Extends: []string{canonical.User},
			Fields: []schema.Field{{Name: "owner", Type: schema.FieldTypeString, Default: ""}}},
		schema.Type{Name: "WorkspaceSlackUser", Family: schema.FamilyUser, Extends: []string{"SlackUser"},
			Fields: []schema.Field{{Name: "workspace", Type: schema.FieldTypeString, Default: ""}}},
	)

	assert.Equal(t, canonical.User, e.conv.Resolve("BotUser"))

	bot := e.make(t, "BotUser", "id", "B1", "name", "Bot", "owner", "ann")
	su, err := e.conv.Promote(bot, "slack", nil)
	require.NoError(t, err)
	assert.Equal(t, "SlackUser", su.TypeName())
	_, has := su.Get("owner")
	assert.False(t, has)

	// A subclass of a registered canonical type demotes to a copy of itself.
	same, err := e.conv.Demote(bot)
	require.NoError(t, err)
	assert.Equal(t, "BotUser", same.TypeName())
	assert.True(t, same.Equal(bot))

	// A subclass of a variant demotes through the variant's registration.
	ws := e.make(t, "WorkspaceSlackUser", "id", "U1", "workspace", "acme", "team_id", "T1")
	user, err := e.conv.Demote(ws)
	require.NoError(t, err)
	assert.Equal(t, canonical.User, user.TypeName())
	_, has = user.Get("workspace")
	assert.False(t, has)
}

func TestPromote_VariantToOtherBackend(t *testing.T) {
	e := newEngine(t)
	mu := e.make(t, "MatrixChannel", "id", "!r:example.org", "name", "ops", "room_id", "!r:example.org", "encrypted", true)

	sc, err := e.conv.Promote(mu, "slack", map[string]any{"is_private": true})
	require.NoError(t, err)
	assert.Equal(t, "SlackChannel", sc.TypeName())
	assert.Equal(t, "ops", field(t, sc, "name"))
	assert.Equal(t, true, field(t, sc, "is_private"))
	_, has := sc.Get("encrypted")
	assert.False(t, has)
}

func TestPromote_ChannelToIRCAndEmail(t *testing.T) {
	e := newEngine(t)
	ch := e.make(t, canonical.Channel, "id", "C1", "name", "general", "topic", "chatter")

	tests := []struct {
		backend string
		variant string
		extra   map[string]any
		field   string
		want    any
	}{
		{"irc", "IRCChannel", map[string]any{"modes": "+nt"}, "modes", "+nt"},
		{"irc", "IRCChannel", nil, "user_count", 0},
		{"email", "EmailChannel", nil, "mailbox", "INBOX"},
		{"email", "EmailChannel", map[string]any{"mailbox": "Archive"}, "mailbox", "Archive"},
	}
	for _, tt := range tests {
		got, err := e.conv.Promote(ch, tt.backend, tt.extra)
		require.NoError(t, err, tt.backend)
		assert.Equal(t, tt.variant, got.TypeName())
		assert.Equal(t, "general", field(t, got, "name"))
		assert.Equal(t, "chatter", field(t, got, "topic"))
		assert.Equal(t, tt.want, field(t, got, tt.field))

		back, err := e.conv.Demote(got)
		require.NoError(t, err)
		assert.Equal(t, canonical.Channel, back.TypeName())
		assert.Equal(t, "C1", field(t, back, "id"))
		_, has := back.Get(tt.field)
		assert.False(t, has, "%s leaked into canonical channel", tt.field)
		assert.Equal(t, observation{ports.OpDemote, tt.backend, ports.OutcomeOK}, e.observed.last())
	}

	_, err := e.conv.Promote(ch, "irc", map[string]any{"user_count": -1})
	assert.ErrorIs(t, err, conversion.ErrConversion)
}

type timing struct {
	mu   sync.Mutex
	took []time.Duration
}

func (r *timing) ObserveConversion(_, _, _ string, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.took = append(r.took, d)
}

func TestConversionTiming(t *testing.T) {
	e := newEngine(t)
	user := e.make(t, canonical.User, "id", "U1")

	stepped := &timing{}
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	conv := conversion.New(e.reg, e.cat, e.prov,
		conversion.WithObserver(stepped),
		conversion.WithClock(clock.NewStepping(start, 5*time.Millisecond)))
	_, err := conv.Promote(user, "slack", nil)
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{5 * time.Millisecond}, stepped.took)

	wall := &timing{}
	conv = conversion.New(e.reg, e.cat, e.prov, conversion.WithObserver(wall))
	before := time.Now()
	_, err = conv.Demote(user)
	require.NoError(t, err)
	require.Len(t, wall.took, 1)
	assert.GreaterOrEqual(t, wall.took[0], time.Duration(0))
	assert.LessOrEqual(t, wall.took[0], time.Since(before), "default clock is wall time")
}

func TestPopulationFailure(t *testing.T) {
	cat := catalog.New()
	types, err := canonical.Types()
	require.NoError(t, err)
	require.NoError(t, cat.AddAll(types))

	boom := errors.New("boom")
	reg := registry.New(registry.WithPopulator(func(*registry.Registry) error { return boom }))
	conv := conversion.New(reg, cat, provider.New(cat))

	user, err := provider.New(cat).Construct(canonical.User, mapping.Of("id", "U1"))
	require.NoError(t, err)

	_, err = conv.Promote(user, "slack", nil)
	assert.ErrorIs(t, err, boom)
	_, err = conv.Demote(user)
	assert.ErrorIs(t, err, boom)
	_, err = conv.ValidateForBackend(user, "slack")
	assert.ErrorIs(t, err, boom)
}

func TestConcurrentConversions(t *testing.T) {
	e := newEngine(t)
	user := e.make(t, canonical.User, "id", "U1", "name", "Ann")

	var wg sync.WaitGroup
	for _, b := range []string{"discord", "slack", "symphony", "matrix", "irc", "email"} {
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(b string) {
				defer wg.Done()
				promoted, err := e.conv.Promote(user, b, nil)
				if !assert.NoError(t, err) {
					return
				}
				demoted, err := e.conv.Demote(promoted)
				if assert.NoError(t, err) {
					assert.True(t, demoted.Equal(user))
				}
			}(b)
		}
	}
	wg.Wait()
}
