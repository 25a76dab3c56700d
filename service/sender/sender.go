package sender

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"uapush/service/alert"
	"uapush/service/delivery"
	"uapush/service/metrics"
	"uapush/service/payload"
	"uapush/service/util"
)

// Sender sends test pushes for one API variant. It is safe for concurrent use.
type Sender struct {
	variant  payload.Variant
	endpoint EndpointConfig
	client   *delivery.Client
	alerts   alert.Generator
	logger   *slog.Logger
}

type options struct {
	httpClient *http.Client
	policy     delivery.RetryPolicy
	generator  alert.Generator
	logger     *slog.Logger
	metrics    *metrics.Metrics
	sleep      delivery.SleepFunc
}

type Option func(*options)

func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

func WithRetryPolicy(p delivery.RetryPolicy) Option {
	return func(o *options) { o.policy = p }
}

func WithGenerator(g alert.Generator) Option {
	return func(o *options) { o.generator = g }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithSleep replaces the backoff wait. Tests use it to skip real delays.
func WithSleep(sleep delivery.SleepFunc) Option {
	return func(o *options) { o.sleep = sleep }
}

func New(v payload.Variant, cfg EndpointConfig, opts ...Option) (*Sender, error) {
	if cfg.AppKey == "" || cfg.MasterSecret == "" {
		return nil, fmt.Errorf("app key and master secret are required")
	}
	if cfg.BroadcastURL == "" || cfg.UnicastURL == "" {
		return nil, fmt.Errorf("broadcast and unicast urls are required")
	}

	o := options{
		policy:    delivery.DefaultRetryPolicy(),
		generator: alert.Default(),
		logger:    util.DiscardLogger(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger.With("variant", v.String())

	return &Sender{
		variant:  v,
		endpoint: cfg.clone(),
		client:   delivery.NewClient(o.httpClient, o.policy, logger, o.metrics, delivery.WithSleep(o.sleep)),
		alerts:   o.generator,
		logger:   logger,
	}, nil
}

func NewLegacyPlain(appKey, masterSecret string, opts ...Option) (*Sender, error) {
	return newDefault(payload.Variant{Version: payload.Legacy, Kind: payload.Plain}, appKey, masterSecret, opts)
}

func NewV3Plain(appKey, masterSecret string, opts ...Option) (*Sender, error) {
	return newDefault(payload.Variant{Version: payload.V3, Kind: payload.Plain}, appKey, masterSecret, opts)
}

func NewLegacyRich(appKey, masterSecret string, opts ...Option) (*Sender, error) {
	return newDefault(payload.Variant{Version: payload.Legacy, Kind: payload.Rich}, appKey, masterSecret, opts)
}

func NewV3Rich(appKey, masterSecret string, opts ...Option) (*Sender, error) {
	return newDefault(payload.Variant{Version: payload.V3, Kind: payload.Rich}, appKey, masterSecret, opts)
}

func newDefault(v payload.Variant, appKey, masterSecret string, opts []Option) (*Sender, error) {
	return New(v, DefaultEndpoints(v, "", appKey, masterSecret), opts...)
}

func (s *Sender) Variant() payload.Variant {
	return s.variant
}

// Endpoints returns a copy of the sender's endpoint configuration.
func (s *Sender) Endpoints() EndpointConfig {
	return s.endpoint.clone()
}

// Send delivers one push to target and returns the alert id of the last
// attempt. Ids are regenerated per attempt, so on retry the returned id is
// not the first one that was tried.
func (s *Sender) Send(ctx context.Context, target payload.Target, extras payload.Extras) (string, error) {
	req := delivery.Request{
		URL:          s.endpoint.urlFor(target),
		AppKey:       s.endpoint.AppKey,
		MasterSecret: s.endpoint.MasterSecret,
		Headers:      s.endpoint.Headers,
	}

	s.logger.Debug("Send push", "target", target.String(), "url", req.URL)

	out := s.client.Deliver(ctx, req, func(int) (string, []byte, error) {
		id := s.alerts.Generate()
		body, err := payload.Build(s.variant, target, extras, id)
		return id, body, err
	})
	return out.AlertID, out.Err
}

func (s *Sender) SendBroadcast(ctx context.Context, extras payload.Extras) (string, error) {
	return s.Send(ctx, payload.BroadcastTarget(), extras)
}

func (s *Sender) SendToTag(ctx context.Context, tag string, extras payload.Extras) (string, error) {
	return s.Send(ctx, payload.TagTarget(tag), extras)
}

func (s *Sender) SendToAlias(ctx context.Context, alias string, extras payload.Extras) (string, error) {
	return s.Send(ctx, payload.AliasTarget(alias), extras)
}

func (s *Sender) SendToDeviceID(ctx context.Context, id string, extras payload.Extras) (string, error) {
	return s.Send(ctx, payload.DeviceTarget(id), extras)
}

// SendToUser targets a rich message center user. Plain senders reject it
// before any request is made.
func (s *Sender) SendToUser(ctx context.Context, user string, extras payload.Extras) (string, error) {
	return s.Send(ctx, payload.UserTarget(user), extras)
}
