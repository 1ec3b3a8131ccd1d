package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ignite/marketing-dashboard/internal/config"
	"github.com/ignite/marketing-dashboard/internal/googleads"
	"github.com/ignite/marketing-dashboard/internal/metaads"
	"github.com/ignite/marketing-dashboard/internal/oauth"
	"github.com/ignite/marketing-dashboard/internal/pkg/daterange"
	"github.com/ignite/marketing-dashboard/internal/pkg/httpretry"
	"github.com/ignite/marketing-dashboard/internal/pkg/httputil"
	"github.com/ignite/marketing-dashboard/internal/searchconsole"
	"github.com/ignite/marketing-dashboard/internal/session"
)

// errNotConfigured is returned when an integration lacks server-side settings.
var errNotConfigured = errors.New("integration not configured")

// Handlers contains all HTTP handlers
type Handlers struct {
	cfg        *config.Config
	sessions   *session.Manager
	authorizer *oauth.Authorizer
	states     oauth.StateStore
	transport  http.RoundTripper
	meta       *metaads.Collector
	health     *HealthChecker
	now        func() time.Time
}

// NewHandlers creates a new Handlers instance
func NewHandlers(cfg *config.Config, sessions *session.Manager, authorizer *oauth.Authorizer, states oauth.StateStore) *Handlers {
	return &Handlers{
		cfg:        cfg,
		sessions:   sessions,
		authorizer: authorizer,
		states:     states,
		transport:  httpretry.NewTransport(nil, httpretry.DefaultPolicy()),
		meta:       metaads.NewCollector(metaads.NewClient(cfg.Meta), cfg.Meta),
		health:     NewHealthChecker(nil, sessions),
		now:        time.Now,
	}
}

// SetTransport replaces the transport provider clients are built on.
func (h *Handlers) SetTransport(rt http.RoundTripper) {
	h.transport = rt
}

// SetMetaCollector replaces the Meta insights collector.
func (h *Handlers) SetMetaCollector(c *metaads.Collector) {
	h.meta = c
}

// SetHealthChecker replaces the health checker, e.g. to include Redis.
func (h *Handlers) SetHealthChecker(hc *HealthChecker) {
	h.health = hc
}

// providerClient refreshes the session's credential for i if needed and
// returns an HTTP client that sends it.
func (h *Handlers) providerClient(ctx context.Context, s *session.Session, i session.Integration, timeout time.Duration) (*http.Client, error) {
	cred, err := s.Credentials.Refresh(ctx, i, h.authorizer.EnsureFresh)
	if err != nil {
		return nil, err
	}
	base := &http.Client{Timeout: timeout, Transport: h.transport}
	return oauth.Client(base, cred), nil
}

func (h *Handlers) searchConsoleClient(ctx context.Context, s *session.Session) (*searchconsole.Client, error) {
	client, err := h.providerClient(ctx, s, session.SearchConsole, h.cfg.SearchConsole.Timeout())
	if err != nil {
		return nil, err
	}
	return searchconsole.NewClient(h.cfg.SearchConsole, client), nil
}

func (h *Handlers) googleAdsClient(ctx context.Context, s *session.Session) (*googleads.Client, error) {
	if h.cfg.GoogleAds.DeveloperToken == "" {
		return nil, errNotConfigured
	}
	client, err := h.providerClient(ctx, s, session.GoogleAds, h.cfg.GoogleAds.Timeout())
	if err != nil {
		return nil, err
	}
	return googleads.NewClient(h.cfg.GoogleAds, client), nil
}

// requestRange reads period or start/end from the query string, falling back
// to the given period.
func (h *Handlers) requestRange(r *http.Request, fallback daterange.Period) (daterange.Range, daterange.Period, error) {
	q := r.URL.Query()
	start, end := q.Get("start"), q.Get("end")
	period := daterange.Period(q.Get("period"))
	if start != "" || end != "" {
		period = daterange.Custom
	} else if period == "" {
		period = fallback
	}
	rng, err := daterange.FromQuery(string(period), start, end, h.now())
	return rng, period, err
}

// Response helpers

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	httputil.JSON(w, status, data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	httputil.Error(w, status, message)
}
