package sender

import (
	"strings"

	"uapush/service/payload"
)

const (
	DefaultBaseURL = "https://go.urbanairship.com"

	AcceptV3 = "application/vnd.urbanairship+json; version=3;"

	PathPush             = "/api/push/"
	PathPushBroadcast    = "/api/push/broadcast/"
	PathAirmailSend      = "/api/airmail/send/"
	PathAirmailBroadcast = "/api/airmail/send/broadcast/"
)

// EndpointConfig is everything a sender needs to reach the API. It is copied
// on construction and never changed afterwards.
type EndpointConfig struct {
	BroadcastURL string
	UnicastURL   string
	AppKey       string
	MasterSecret string
	Headers      map[string]string
}

// DefaultEndpoints returns the endpoint pair and headers for v rooted at
// baseURL (DefaultBaseURL when empty).
func DefaultEndpoints(v payload.Variant, baseURL, appKey, masterSecret string) EndpointConfig {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	cfg := EndpointConfig{
		AppKey:       appKey,
		MasterSecret: masterSecret,
	}

	switch {
	case v.Version == payload.V3:
		cfg.BroadcastURL = baseURL + PathPush
		cfg.UnicastURL = baseURL + PathPush
		cfg.Headers = map[string]string{"Accept": AcceptV3}
	case v.Kind == payload.Rich:
		cfg.BroadcastURL = baseURL + PathAirmailBroadcast
		cfg.UnicastURL = baseURL + PathAirmailSend
	default:
		cfg.BroadcastURL = baseURL + PathPushBroadcast
		cfg.UnicastURL = baseURL + PathPush
	}

	return cfg
}

func (c EndpointConfig) clone() EndpointConfig {
	out := c
	out.Headers = make(map[string]string, len(c.Headers))
	for k, v := range c.Headers {
		out.Headers[k] = v
	}
	return out
}

func (c EndpointConfig) urlFor(t payload.Target) string {
	if t.IsBroadcast() {
		return c.BroadcastURL
	}
	return c.UnicastURL
}
