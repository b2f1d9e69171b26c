package lexicon

import "fmt"

// Tag is the role a name plays in the lexicon. The zero value is invalid.
type Tag uint8

const (
	FirstName Tag = iota + 1
	LastName
)

// String returns the tag as the downstream tagger spells it.
func (t Tag) String() string {
	switch t {
	case FirstName:
		return "FirstName"
	case LastName:
		return "LastName"
	default:
		return fmt.Sprintf("Tag(%d)", uint8(t))
	}
}

// Valid reports whether t is one of the two known tags.
func (t Tag) Valid() bool {
	return t == FirstName || t == LastName
}

// ParseTag parses "FirstName" or "LastName".
func ParseTag(s string) (Tag, error) {
	switch s {
	case "FirstName":
		return FirstName, nil
	case "LastName":
		return LastName, nil
	default:
		return 0, fmt.Errorf("unknown tag %q", s)
	}
}

func (t Tag) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("cannot marshal invalid tag %d", uint8(t))
	}
	return []byte(t.String()), nil
}

func (t *Tag) UnmarshalText(b []byte) error {
	v, err := ParseTag(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}
