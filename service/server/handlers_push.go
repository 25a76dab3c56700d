package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"uapush/service/sender"
	"uapush/service/util"

	"github.com/google/uuid"
)

type alertBody struct {
	Alert string `json:"alert"`
}

// pushBody covers every payload shape the sender produces. Legacy requests
// carry selector arrays at the top level, V3 requests carry an audience.
type pushBody struct {
	Audience     json.RawMessage `json:"audience"`
	Notification *alertBody      `json:"notification"`
	Message      json.RawMessage `json:"message"`

	Android *alertBody `json:"android"`
	Push    *struct {
		Android *alertBody `json:"android"`
	} `json:"push"`

	Tags    []string `json:"tags"`
	Aliases []string `json:"aliases"`
	APIDs   []string `json:"apids"`
	Users   []string `json:"users"`
}

func (b *pushBody) isV3() bool {
	return len(b.Audience) > 0
}

func (b *pushBody) alertID() string {
	switch {
	case b.Notification != nil:
		return b.Notification.Alert
	case b.Android != nil:
		return b.Android.Alert
	case b.Push != nil && b.Push.Android != nil:
		return b.Push.Android.Alert
	}
	return ""
}

func (b *pushBody) rich() bool {
	if b.isV3() {
		return len(b.Message) > 0
	}
	return b.Push != nil
}

func (b *pushBody) audience() string {
	if b.isV3() {
		var compact bytes.Buffer
		if err := json.Compact(&compact, b.Audience); err != nil {
			return string(b.Audience)
		}
		return strings.Trim(compact.String(), `"`)
	}

	var parts []string
	for _, sel := range []struct {
		key    string
		values []string
	}{
		{"tags", b.Tags},
		{"aliases", b.Aliases},
		{"apids", b.APIDs},
		{"users", b.Users},
	} {
		if len(sel.values) > 0 {
			parts = append(parts, sel.key+"="+strings.Join(sel.values, ","))
		}
	}
	if len(parts) == 0 {
		return "all"
	}
	return strings.Join(parts, " ")
}

func isBroadcastPath(endpoint string) bool {
	return endpoint == sender.PathPushBroadcast || endpoint == sender.PathAirmailBroadcast
}

func (s *Server) handlePush(endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			util.LogAndError(w, s.logger, "Failed to read body", http.StatusBadRequest, err)
			return
		}

		var body pushBody
		if err := json.Unmarshal(raw, &body); err != nil {
			util.JSONError(w, "Body must be a JSON object", http.StatusBadRequest)
			return
		}

		if body.isV3() {
			if endpoint != sender.PathPush {
				util.JSONError(w, "Audience payloads must be sent to "+sender.PathPush, http.StatusBadRequest)
				return
			}
			if !strings.Contains(r.Header.Get("Accept"), "version=3") {
				util.JSONError(w, "V3 payloads require the versioned Accept header", http.StatusNotAcceptable)
				return
			}
		} else if !isBroadcastPath(endpoint) && body.audience() == "all" {
			util.JSONError(w, "Unicast push requires a selector", http.StatusBadRequest)
			return
		}

		alertID := body.alertID()
		if alertID == "" {
			util.JSONError(w, "Missing alert", http.StatusBadRequest)
			return
		}

		p := Push{
			ID:       uuid.NewString(),
			Endpoint: endpoint,
			AlertID:  alertID,
			Audience: body.audience(),
			Rich:     body.rich(),
			Received: time.Now(),
			Body:     json.RawMessage(raw),
		}
		s.recorder.Add(p)
		s.metrics.IncReceived(endpoint)

		s.logger.Info("Received push",
			"endpoint", endpoint,
			"alertID", alertID,
			"audience", util.Truncate(p.Audience, 80),
			"rich", p.Rich,
		)
		s.logger.Debug("Push body", "body", util.Truncate(string(raw), 512))

		util.WriteJSON(w, http.StatusOK, map[string]any{
			"ok":       true,
			"push_ids": []string{p.ID},
		})
	}
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	n := 0
	if v := r.URL.Query().Get("n"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			util.JSONError(w, fmt.Sprintf("Invalid n %q", v), http.StatusBadRequest)
			return
		}
		n = parsed
	}

	util.WriteJSON(w, http.StatusOK, map[string]any{
		"ok":     true,
		"total":  s.recorder.Total(),
		"pushes": s.recorder.Recent(n),
	})
}
