package httpfetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/opentrees/wfsget/internal/core/domain"
	"github.com/opentrees/wfsget/internal/core/ports/driven"
	"github.com/opentrees/wfsget/internal/logger"
)

// Ensure Fetcher implements the interface.
var _ driven.Fetcher = (*Fetcher)(nil)

// Options configure a Fetcher.
type Options struct {
	// Timeout bounds each request, including reading the body.
	Timeout time.Duration

	// RateLimit is requests per second. Zero or less disables throttling.
	RateLimit float64

	// UserAgent is sent with every request.
	UserAgent string

	// Token, when set, is sent as a bearer token.
	Token string
}

// OptionsFromSettings derives fetcher options from engine settings.
func OptionsFromSettings(s domain.EngineSettings) Options {
	return Options{
		Timeout:   s.RequestTimeout,
		RateLimit: s.RateLimit,
		UserAgent: s.UserAgent,
		Token:     s.Token,
	}
}

// Fetcher performs throttled HTTP GET requests.
type Fetcher struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
}

// New creates a fetcher.
func New(opts Options) *Fetcher {
	client := &http.Client{}
	if opts.Token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token})
		client = oauth2.NewClient(context.Background(), ts)
	}
	client.Timeout = opts.Timeout

	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = domain.DefaultUserAgent
	}

	return &Fetcher{
		client:    client,
		limiter:   rate.NewLimiter(limit, 1),
		userAgent: userAgent,
	}
}

// Fetch issues a GET and reads the whole body. Any status is returned as a
// Response; only transport failures are errors.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*driven.Response, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/xml, text/xml;q=0.9, */*;q=0.1")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	logger.Debug("GET %s -> %d (%d bytes, %s)", url, resp.StatusCode, len(body), time.Since(start).Round(time.Millisecond))
	return &driven.Response{StatusCode: resp.StatusCode, Body: body}, nil
}
