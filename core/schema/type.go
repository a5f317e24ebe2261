package schema

// Family is the closed set of entity families a type can belong to.
type Family string

const (
	FamilyBase     Family = "base"
	FamilyUser     Family = "user"
	FamilyChannel  Family = "channel"
	FamilyPresence Family = "presence"
	FamilyActivity Family = "activity"
	FamilyMessage  Family = "message"
)

// Families lists every valid family.
var Families = []Family{
	FamilyBase, FamilyUser, FamilyChannel, FamilyPresence, FamilyActivity, FamilyMessage,
}

// Valid reports whether f is a known family.
func (f Family) Valid() bool {
	for _, known := range Families {
		if f == known {
			return true
		}
	}
	return false
}

// Type describes a canonical type or a backend variant.
type Type struct {
	// Name is the unique type name (e.g. "User", "SlackUser").
	Name string `yaml:"type" json:"type"`

	Family Family `yaml:"family" json:"family"`

	// Backend is the backend id a variant belongs to. Empty for canonical types.
	Backend string `yaml:"backend,omitempty" json:"backend,omitempty"`

	// VariantOf names the canonical type a variant extends.
	VariantOf string `yaml:"variant_of,omitempty" json:"variant_of,omitempty"`

	// Extends lists declared parents in resolution order.
	Extends []string `yaml:"extends,omitempty" json:"extends,omitempty"`

	// Abstract types only contribute fields to their children.
	Abstract bool `yaml:"abstract,omitempty" json:"abstract,omitempty"`

	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// Fields declared by this type, in order. Inherited fields are not listed.
	Fields []Field `yaml:"fields,omitempty" json:"fields,omitempty"`
}

// IsVariant reports whether t is a backend variant.
func (t Type) IsVariant() bool {
	return t.VariantOf != ""
}

// Parents returns the declared parents, with VariantOf first when it is
// not already listed.
func (t Type) Parents() []string {
	parents := make([]string, 0, len(t.Extends)+1)
	if t.VariantOf != "" && !contains(t.Extends, t.VariantOf) {
		parents = append(parents, t.VariantOf)
	}
	return append(parents, t.Extends...)
}

// Field returns the declared field with the given name.
func (t Type) Field(name string) (Field, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
