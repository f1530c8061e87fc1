// Package gateway performs authenticated calls against the remote API and
// reports authentication faults to a handler.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
)

// CredentialSource supplies the Authorization header; "" means none.
type CredentialSource interface {
	Header() string
}

// Options mirrors the subset of fetch options the client uses.
type Options struct {
	Method  string
	Headers map[string]string
	Body    []byte
}

// Response is the outcome of Send. Status is 0 when no HTTP response was
// received; Text then carries the transport error.
type Response struct {
	OK     bool
	Status int
	JSON   json.RawMessage
	Text   string
}

// Fault describes a response that asked for authentication.
type Fault struct {
	Method string
	URL    string
	Status int
	Text   string
}

func (f Fault) Label() string {
	return f.Method + " " + f.URL
}

func (f Fault) Summary() string {
	text := f.Text
	if text == "" {
		text = "(no body)"
	}
	return fmt.Sprintf("%d %s", f.Status, text)
}

// Config holds gateway configuration.
type Config struct {
	BaseURL  string
	Timeout  time.Duration
	RetryMax int
}

type Gateway struct {
	baseURL string
	client  *retryablehttp.Client
	creds   CredentialSource
	log     zerolog.Logger

	onAuthFault  func(Fault)
	onNetworkErr func(label string, err error)
}

type Option func(*Gateway)

// WithAuthFaultHandler is called once for every 401 response.
func WithAuthFaultHandler(fn func(Fault)) Option {
	return func(g *Gateway) { g.onAuthFault = fn }
}

// WithNetworkErrorHandler is called when a request gets no HTTP response.
func WithNetworkErrorHandler(fn func(label string, err error)) Option {
	return func(g *Gateway) { g.onNetworkErr = fn }
}

func WithLogger(log zerolog.Logger) Option {
	return func(g *Gateway) { g.log = log }
}

func New(cfg Config, creds CredentialSource, opts ...Option) *Gateway {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	g := &Gateway{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		creds:   creds,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.log = g.log.With().Str("component", "gateway").Logger()

	rc := retryablehttp.NewClient()
	rc.HTTPClient.Timeout = cfg.Timeout
	rc.RetryMax = cfg.RetryMax
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 5 * time.Second
	rc.Logger = &retryLogger{log: g.log}
	// hand the final response back instead of a "giving up" error
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.CheckRetry = checkRetry
	g.client = rc
	return g
}

func (g *Gateway) BaseURL() string {
	return g.baseURL
}

// URL resolves a request path against the base URL.
func (g *Gateway) URL(path string) string {
	return g.baseURL + path
}

// Send performs the call. It never returns an error: transport failures
// produce a Response with Status 0.
func (g *Gateway) Send(ctx context.Context, path string, opts Options) *Response {
	method := strings.ToUpper(opts.Method)
	if method == "" {
		method = http.MethodGet
	}
	url := g.URL(path)
	label := method + " " + url

	var body any
	if opts.Body != nil {
		body = opts.Body
	}
	if !idempotent(method) {
		ctx = context.WithValue(ctx, noRetryKey{}, true)
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return g.networkFailure(label, err)
	}
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}
	if g.creds != nil {
		if h := g.creds.Header(); h != "" {
			req.Header.Set("Authorization", h)
		}
	}

	start := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		return g.networkFailure(label, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return g.networkFailure(label, err)
	}

	out := &Response{
		OK:     resp.StatusCode >= 200 && resp.StatusCode < 300,
		Status: resp.StatusCode,
		Text:   string(raw),
	}
	if len(raw) > 0 && json.Valid(raw) {
		out.JSON = json.RawMessage(raw)
	}

	g.log.Debug().
		Str("method", method).
		Str("url", url).
		Int("status", resp.StatusCode).
		Dur("took", time.Since(start)).
		Msg("request")

	if resp.StatusCode == http.StatusUnauthorized {
		f := Fault{Method: method, URL: url, Status: resp.StatusCode, Text: out.Text}
		g.log.Warn().Str("url", url).Msg("authentication required")
		if g.onAuthFault != nil {
			g.onAuthFault(f)
		}
	}
	return out
}

func (g *Gateway) networkFailure(label string, err error) *Response {
	g.log.Error().Err(err).Str("request", label).Msg("request failed")
	if g.onNetworkErr != nil {
		g.onNetworkErr(label, err)
	}
	return &Response{OK: false, Status: 0, Text: err.Error()}
}

type noRetryKey struct{}

func idempotent(method string) bool {
	return method == http.MethodGet || method == http.MethodHead
}

// checkRetry applies the default policy to GET and HEAD only. Any other
// method is sent once, whether it failed on the wire or with a 5xx.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if ctx.Value(noRetryKey{}) != nil {
		return false, nil
	}
	if resp != nil && resp.Request != nil && !idempotent(resp.Request.Method) {
		return false, nil
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

// retryLogger adapts zerolog to retryablehttp.LeveledLogger.
type retryLogger struct {
	log zerolog.Logger
}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.log.Error().Fields(keysAndValues).Msg(msg)
}

func (l *retryLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l *retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.log.Trace().Fields(keysAndValues).Msg(msg)
}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.log.Warn().Fields(keysAndValues).Msg(msg)
}
