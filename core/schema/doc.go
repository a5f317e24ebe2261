/*
Package schema defines the declarative type descriptors for chat entities.

A type is either canonical (shared by every backend) or a backend variant
that extends a canonical type with backend-specific fields. Types are
described in YAML:

	backend: slack
	types:
	  - type: SlackUser
	    family: user
	    variant_of: User
	    fields:
	      - { name: id, type: string, required: true }
	      - { name: team_id, type: string, default: "" }
	      - { name: tz_offset, type: int, default: 0 }

# Inheritance

A type lists its parents under extends, in order. variant_of names the
canonical type a variant belongs to and is implied as the first parent.
Fields are inherited; a redeclared field replaces the inherited
definition in place.

# Field Types

  - string:    Text value
  - int:       Integer value
  - float:     Floating-point value
  - bool:      Boolean value
  - timestamp: Date/time value (RFC 3339 in documents)
  - enum:      One of a set of values (requires values)
  - strings:   List of strings
  - ints:      List of integers
  - list:      List of arbitrary values
  - map:       Nested free-form mapping
  - object:    Nested instance of another type (requires to)

nullable admits null. A required field is missing when it is absent,
null or the empty string.

# Parsing

	types, err := schema.ParseFile("types/slack.yaml")
	types, err := schema.ParseDir("types/")
	types, err := schema.ParseFS(embedded, ".")

Every parsed type is validated. Invalid definitions return an error.
*/
package schema
