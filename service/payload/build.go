package payload

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	richTitlePrefix   = "Rich Push "
	richMessagePrefix = "Rich Push Message "
	richContentType   = "text/html"
)

var legacyTargetKeys = map[TargetKind]string{
	Tag:      "tags",
	Alias:    "aliases",
	DeviceID: "apids",
	User:     "users",
}

var v3TargetKeys = map[TargetKind]string{
	Tag:      "tag",
	Alias:    "alias",
	DeviceID: "apid",
	User:     "named_user",
}

type androidLegacy struct {
	Alert string            `json:"alert"`
	Extra map[string]string `json:"extra"`
}

type androidV3 struct {
	Extra map[string]string `json:"extra"`
}

type notificationV3 struct {
	Alert   string     `json:"alert"`
	Android *androidV3 `json:"android,omitempty"`
}

// Build renders the request body for one attempt.
func Build(v Variant, target Target, extras Extras, alertID string) ([]byte, error) {
	if err := validate(v, target); err != nil {
		return nil, err
	}

	var doc map[string]any
	switch v.Version {
	case Legacy:
		doc = buildLegacy(v.Kind, target, extras, alertID)
	case V3:
		doc = buildV3(v.Kind, target, extras, alertID)
	default:
		return nil, fmt.Errorf("unsupported api version %d", v.Version)
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", v, err)
	}
	return body, nil
}

func validate(v Variant, target Target) error {
	if target.Kind == Broadcast {
		return nil
	}
	if _, ok := legacyTargetKeys[target.Kind]; !ok {
		return &MalformedTargetError{Variant: v, Target: target, Reason: "unknown target kind"}
	}
	if target.Kind == User && v.Kind != Rich {
		return &MalformedTargetError{Variant: v, Target: target, Reason: "user targets require a rich push"}
	}
	if strings.TrimSpace(target.Value) == "" {
		return &MalformedTargetError{Variant: v, Target: target, Reason: "empty audience value"}
	}
	return nil
}

func buildLegacy(kind MessageKind, target Target, extras Extras, alertID string) map[string]any {
	doc := make(map[string]any)
	if !target.IsBroadcast() {
		doc[legacyTargetKeys[target.Kind]] = []string{target.Value}
	}

	android := androidLegacy{Alert: alertID, Extra: extras.clone()}
	if kind == Rich {
		doc["push"] = map[string]any{"android": android}
		doc["title"] = richTitlePrefix + alertID
		doc["message"] = richMessagePrefix + alertID
		doc["content-type"] = richContentType
		return doc
	}

	doc["android"] = android
	return doc
}

func buildV3(kind MessageKind, target Target, extras Extras, alertID string) map[string]any {
	doc := map[string]any{
		"audience":     audience(target),
		"device_types": []string{"android"},
	}

	notification := notificationV3{Alert: alertID}
	if kind == Rich {
		message := extras.clone()
		message["title"] = richTitlePrefix + alertID
		message["body"] = richMessagePrefix + alertID
		message["content_type"] = richContentType
		doc["message"] = message
	} else if len(extras) > 0 {
		notification.Android = &androidV3{Extra: extras.clone()}
	}
	doc["notification"] = notification

	return doc
}

func audience(target Target) any {
	if target.IsBroadcast() || strings.EqualFold(strings.TrimSpace(target.Value), "all") {
		return "all"
	}
	return map[string]string{v3TargetKeys[target.Kind]: target.Value}
}
