package payload

import "strings"

type APIVersion int

const (
	Legacy APIVersion = iota
	V3
)

func (v APIVersion) String() string {
	switch v {
	case Legacy:
		return "legacy"
	case V3:
		return "v3"
	default:
		return "unknown"
	}
}

func ParseAPIVersion(raw string) (APIVersion, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "legacy", "v1", "v2":
		return Legacy, true
	case "v3", "3":
		return V3, true
	default:
		return Legacy, false
	}
}

type MessageKind int

const (
	Plain MessageKind = iota
	Rich
)

func (k MessageKind) String() string {
	switch k {
	case Plain:
		return "plain"
	case Rich:
		return "rich"
	default:
		return "unknown"
	}
}

func ParseMessageKind(raw string) (MessageKind, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "plain", "push":
		return Plain, true
	case "rich", "airmail":
		return Rich, true
	default:
		return Plain, false
	}
}

// Variant fixes the API revision and message kind a sender speaks.
type Variant struct {
	Version APIVersion
	Kind    MessageKind
}

func (v Variant) String() string {
	return v.Version.String() + "-" + v.Kind.String()
}

type TargetKind int

const (
	Broadcast TargetKind = iota
	Tag
	Alias
	DeviceID
	User
)

func (k TargetKind) String() string {
	switch k {
	case Broadcast:
		return "broadcast"
	case Tag:
		return "tag"
	case Alias:
		return "alias"
	case DeviceID:
		return "device"
	case User:
		return "user"
	default:
		return "unknown"
	}
}

// Target is the audience of a single push.
type Target struct {
	Kind  TargetKind
	Value string
}

func BroadcastTarget() Target {
	return Target{Kind: Broadcast}
}

func TagTarget(tag string) Target {
	return Target{Kind: Tag, Value: tag}
}

func AliasTarget(alias string) Target {
	return Target{Kind: Alias, Value: alias}
}

func DeviceTarget(id string) Target {
	return Target{Kind: DeviceID, Value: id}
}

func UserTarget(user string) Target {
	return Target{Kind: User, Value: user}
}

func (t Target) IsBroadcast() bool {
	return t.Kind == Broadcast
}

func (t Target) String() string {
	if t.Kind == Broadcast {
		return "broadcast"
	}
	return t.Kind.String() + ":" + t.Value
}

// Extras are the flat key/value pairs attached to a push.
type Extras map[string]string

func (e Extras) clone() map[string]string {
	out := make(map[string]string, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}
