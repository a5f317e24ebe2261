package schema

import "testing"

func TestFieldErrors(t *testing.T) {
	errs := FieldErrors{
		{Path: "id", Kind: KindMissing, Message: "field required"},
		{Path: "status", Kind: KindEnum, Message: "must be one of: online, offline"},
		{Path: "email", Kind: KindMissing, Message: "field required"},
	}

	missing := errs.Paths(KindMissing)
	if len(missing) != 2 || missing[0] != "id" || missing[1] != "email" {
		t.Errorf("Paths(KindMissing) = %v", missing)
	}

	want := "id: field required; status: must be one of: online, offline; email: field required"
	if got := errs.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	fe := FieldError{Path: "member_count", Kind: KindConstraint, Message: "must not be negative"}
	if got := fe.Error(); got != "member_count: must not be negative" {
		t.Errorf("FieldError.Error() = %q", got)
	}
}

func TestErrorKindString(t *testing.T) {
	tests := map[ErrorKind]string{
		KindMissing:    "missing",
		KindType:       "type",
		KindEnum:       "enum",
		KindConstraint: "constraint",
		ErrorKind(99):  "kind(99)",
	}
	for k, want := range tests {
		if got := k.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", int(k), got, want)
		}
	}
}
