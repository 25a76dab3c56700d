package payload

import "fmt"

// MalformedTargetError means a target cannot be rendered as an audience.
// It is a caller bug and is never retried.
type MalformedTargetError struct {
	Variant Variant
	Target  Target
	Reason  string
}

func (e *MalformedTargetError) Error() string {
	return fmt.Sprintf("malformed %s target %q for %s push: %s", e.Target.Kind, e.Target.Value, e.Variant, e.Reason)
}
