package model

import (
	"testing"
	"time"

	"github.com/Point72/chatom/core/mapping"
)

func TestInstanceAccessors(t *testing.T) {
	seen := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	inst := New("SlackUser", mapping.Of(
		"id", "U1",
		"is_admin", true,
		"tz_offset", -18000,
		"num_members", nil,
		"last_seen", seen,
		"roles", []string{"admin"},
		"user", mapping.Of("id", "U2"),
	))

	if got := inst.TypeName(); got != "SlackUser" {
		t.Errorf("TypeName() = %q", got)
	}
	if got := inst.String("id"); got != "U1" {
		t.Errorf("String(id) = %q", got)
	}
	if got := inst.String("missing"); got != "" {
		t.Errorf("String(missing) = %q", got)
	}
	if !inst.Bool("is_admin") {
		t.Error("Bool(is_admin) = false")
	}
	if n, ok := inst.Int("tz_offset"); !ok || n != -18000 {
		t.Errorf("Int(tz_offset) = %d, %v", n, ok)
	}
	if _, ok := inst.Int("num_members"); ok {
		t.Error("Int(null) should report unset")
	}
	if ts, ok := inst.Time("last_seen"); !ok || !ts.Equal(seen) {
		t.Errorf("Time(last_seen) = %v, %v", ts, ok)
	}
	roles := inst.Strings("roles")
	roles[0] = "mutated"
	if inst.Strings("roles")[0] != "admin" {
		t.Error("Strings() must return a copy")
	}
	nested, ok := inst.Nested("user")
	if !ok {
		t.Fatal("Nested(user) missing")
	}
	nested.Set("id", "X")
	if again, _ := inst.Nested("user"); again.Len() != 1 {
		t.Error("Nested() must return a copy")
	} else if id, _ := again.Get("id"); id != "U2" {
		t.Error("Nested() must return a copy")
	}
}

func TestInstanceCopyIsIndependent(t *testing.T) {
	orig := New("User", mapping.Of("id", "U1", "name", "alice"))
	cp := orig.Copy()

	if cp == orig {
		t.Fatal("Copy() returned the same pointer")
	}
	if !cp.Equal(orig) {
		t.Error("Copy() should be equal to the original")
	}

	fields := cp.Fields()
	fields.Set("name", "bob")
	if cp.String("name") != "alice" {
		t.Error("Fields() must return a copy")
	}
}

func TestInstanceEqual(t *testing.T) {
	a := New("User", mapping.Of("id", "U1"))
	b := New("SlackUser", mapping.Of("id", "U1"))
	if a.Equal(b) {
		t.Error("different types should not be equal")
	}
	var nilInst *Instance
	if a.Equal(nilInst) {
		t.Error("instance should not equal nil")
	}
}

func TestDocument(t *testing.T) {
	if err := (Document{}).Validate(); err != ErrNoType {
		t.Errorf("Validate() = %v, want ErrNoType", err)
	}

	inst := New("User", mapping.Of("id", "U1"))
	doc := inst.Document()
	if doc.Type != "User" || doc.FieldMapping().Len() != 1 {
		t.Errorf("Document() = %+v", doc)
	}
	if (Document{Type: "User"}).FieldMapping() == nil {
		t.Error("FieldMapping() should never be nil")
	}
}
