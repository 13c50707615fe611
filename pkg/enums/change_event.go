package enums

import "fmt"

// ChangeEventType classifies change-feed events emitted by the backing store.
type ChangeEventType string

const (
	ChangeEventInsert ChangeEventType = "insert"
	ChangeEventUpdate ChangeEventType = "update"
	ChangeEventDelete ChangeEventType = "delete"
)

var validChangeEventTypes = []ChangeEventType{
	ChangeEventInsert,
	ChangeEventUpdate,
	ChangeEventDelete,
}

// String implements fmt.Stringer.
func (c ChangeEventType) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ChangeEventType.
func (c ChangeEventType) IsValid() bool {
	for _, candidate := range validChangeEventTypes {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseChangeEventType converts raw input into a ChangeEventType.
func ParseChangeEventType(value string) (ChangeEventType, error) {
	for _, candidate := range validChangeEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid change event type %q", value)
}
