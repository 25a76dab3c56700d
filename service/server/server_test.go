package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"uapush/service/config"
	"uapush/service/delivery"
	"uapush/service/payload"
	"uapush/service/sender"
	"uapush/service/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		AppKey:       "key",
		MasterSecret: "secret",
		RecentPushes: 10,
	}
}

func newTestServer(t *testing.T, cfg *config.Config) (*Server, *httptest.Server) {
	t.Helper()
	s := New(cfg, util.DiscardLogger())
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func post(t *testing.T, url, body string, headers map[string]string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", util.BasicAuth("key", "secret"))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func noSleep(ctx context.Context, d time.Duration) error {
	return ctx.Err()
}

func TestSenderRoundTrip(t *testing.T) {
	variants := []payload.Variant{
		{Version: payload.Legacy, Kind: payload.Plain},
		{Version: payload.Legacy, Kind: payload.Rich},
		{Version: payload.V3, Kind: payload.Plain},
		{Version: payload.V3, Kind: payload.Rich},
	}

	for _, v := range variants {
		t.Run(v.String(), func(t *testing.T) {
			s, ts := newTestServer(t, testConfig())

			snd, err := sender.New(v, sender.DefaultEndpoints(v, ts.URL, "key", "secret"))
			require.NoError(t, err)

			ctx := context.Background()
			broadcastID, err := snd.SendBroadcast(ctx, payload.Extras{"k": "v"})
			require.NoError(t, err)
			tagID, err := snd.SendToTag(ctx, "beta", nil)
			require.NoError(t, err)

			assert.Equal(t, 2, s.Recorder().Total())

			p, ok := s.Recorder().Find(broadcastID)
			require.True(t, ok)
			assert.Equal(t, "all", p.Audience)
			assert.Equal(t, v.Kind == payload.Rich, p.Rich)

			p, ok = s.Recorder().Find(tagID)
			require.True(t, ok)
			assert.Contains(t, p.Audience, "beta")
		})
	}
}

func TestRejectsBadCredentials(t *testing.T) {
	s, ts := newTestServer(t, testConfig())

	v := payload.Variant{Version: payload.Legacy, Kind: payload.Plain}
	snd, err := sender.New(v, sender.DefaultEndpoints(v, ts.URL, "key", "wrong"), sender.WithSleep(noSleep))
	require.NoError(t, err)

	id, err := snd.SendToAlias(context.Background(), "a", nil)

	var exhausted *delivery.RetriesExhaustedError
	require.True(t, errors.As(err, &exhausted))
	assert.Equal(t, 3, exhausted.Attempts)
	assert.NotEmpty(t, id)

	var status *delivery.HTTPStatusError
	require.True(t, errors.As(err, &status))
	assert.Equal(t, http.StatusUnauthorized, status.StatusCode)
	assert.Zero(t, s.Recorder().Total())
}

func TestPushValidation(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		body    string
		headers map[string]string
		status  int
	}{
		{"not json", sender.PathPush, "hello", nil, http.StatusBadRequest},
		{"missing alert", sender.PathPush, `{"tags":["a"],"android":{}}`, nil, http.StatusBadRequest},
		{"unicast without selector", sender.PathPush, `{"android":{"alert":"x"}}`, nil, http.StatusBadRequest},
		{"v3 without accept", sender.PathPush, `{"audience":"all","notification":{"alert":"x"}}`, nil, http.StatusNotAcceptable},
		{"v3 on legacy path", sender.PathPushBroadcast, `{"audience":"all","notification":{"alert":"x"}}`,
			map[string]string{"Accept": sender.AcceptV3}, http.StatusBadRequest},
		{"legacy broadcast", sender.PathPushBroadcast, `{"android":{"alert":"x"}}`, nil, http.StatusOK},
		{"v3 tag", sender.PathPush, `{"audience":{"tag":["b"]},"notification":{"alert":"x"}}`,
			map[string]string{"Accept": sender.AcceptV3}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ts := newTestServer(t, testConfig())
			resp := post(t, ts.URL+tt.path, tt.body, tt.headers)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestPushResponseAndRecent(t *testing.T) {
	_, ts := newTestServer(t, testConfig())

	resp := post(t, ts.URL+sender.PathPush, `{"aliases":["a"],"android":{"alert":"uapush-1"}}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		OK      bool     `json:"ok"`
		PushIDs []string `json:"push_ids"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.True(t, out.OK)
	require.Len(t, out.PushIDs, 1)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/recent?n=5", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", util.BasicAuth("key", "secret"))
	recentResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer recentResp.Body.Close()

	var recent struct {
		Total  int    `json:"total"`
		Pushes []Push `json:"pushes"`
	}
	require.NoError(t, json.NewDecoder(recentResp.Body).Decode(&recent))
	assert.Equal(t, 1, recent.Total)
	require.Len(t, recent.Pushes, 1)
	assert.Equal(t, out.PushIDs[0], recent.Pushes[0].ID)
	assert.Equal(t, "uapush-1", recent.Pushes[0].AlertID)
	assert.Equal(t, "aliases=a", recent.Pushes[0].Audience)
}

func TestRateLimitTriggersRetry(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = 1
	s, ts := newTestServer(t, cfg)

	resp := post(t, ts.URL+sender.PathPushBroadcast, `{"android":{"alert":"a"}}`, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp = post(t, ts.URL+sender.PathPushBroadcast, `{"android":{"alert":"b"}}`, nil)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	assert.Equal(t, 1, s.Recorder().Total())
}

func TestHealthAndMetrics(t *testing.T) {
	_, ts := newTestServer(t, testConfig())

	post(t, ts.URL+sender.PathPushBroadcast, `{"android":{"alert":"a"}}`, nil)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	var health healthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, 1, health.Received)
	assert.NotEmpty(t, health.Uptime)

	metricsResp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer metricsResp.Body.Close()
	body, err := io.ReadAll(metricsResp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `uapush_fake_pushes_received_total{endpoint="/api/push/broadcast/"} 1`)
}

func TestShutdownWithoutStart(t *testing.T) {
	s := New(testConfig(), util.DiscardLogger())
	assert.NoError(t, s.Shutdown())
}
