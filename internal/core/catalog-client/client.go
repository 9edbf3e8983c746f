// internal/core/catalog-client/client.go
package catalogclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	commonerrors "shopping-assistant/internal/common/errors"
	commonhttp "shopping-assistant/internal/common/http"
	"shopping-assistant/internal/common/logger"
	"shopping-assistant/internal/common/metrics"
	"shopping-assistant/internal/common/observability"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	headerRequestID = "X-Request-ID"
	maxErrorBody    = 4 << 10
)

// Doer sends a single HTTP request. *commonhttp.Client and *http.Client both satisfy it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Credentials is the client-local credential holder, normally *auth.Session.
type Credentials interface {
	Token(ctx context.Context) (string, error)
	Establish(ctx context.Context, token string, user interface{}) error
	SaveUser(ctx context.Context, user interface{}) error
	Evict(ctx context.Context) error
}

// UnauthenticatedHook is invoked after a 401 has evicted the stored credential.
// entryPoint is the login entry point the user should be sent to.
type UnauthenticatedHook func(entryPoint string)

type Option func(*Client)

func WithDoer(d Doer) Option {
	return func(c *Client) { c.doer = d }
}

func WithObservability(o *observability.Observability) Option {
	return func(c *Client) { c.obs = o }
}

func WithUnauthenticatedHook(h UnauthenticatedHook) Option {
	return func(c *Client) { c.onUnauthenticated = h }
}

// Client talks to the remote catalog REST API. It holds no state of its own
// beyond what Credentials stores.
type Client struct {
	config            *Config
	doer              Doer
	creds             Credentials
	logger            logger.Logger
	obs               *observability.Observability
	onUnauthenticated UnauthenticatedHook
}

func NewClient(cfg *Config, creds Credentials, log logger.Logger, opts ...Option) *Client {
	cfg = defaultConfig(cfg)
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	c := &Client{
		config: cfg,
		creds:  creds,
		logger: log.Named("catalog-client"),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.doer == nil {
		transport := commonhttp.NewClient(cfg.Timeout)
		if cfg.Breaker != nil {
			settings := *cfg.Breaker
			settings.OnStateChange = func(name, from, to string) {
				c.logger.Warn("circuit breaker state changed", map[string]interface{}{
					"breaker": name,
					"from":    from,
					"to":      to,
				})
			}
			transport = transport.WithBreaker(settings)
		}
		c.doer = transport
	}
	return c
}

// request describes one call to the catalog API.
type request struct {
	op     string
	method string
	path   string
	query  url.Values
	body   interface{}
}

// send performs the request and returns the raw response body of a 2xx reply.
func (c *Client) send(ctx context.Context, r request) ([]byte, error) {
	ctx, span := c.obs.StartSpan(ctx, "catalog."+r.op)
	defer span.End()

	start := time.Now()
	payload, err := c.roundTrip(ctx, r)
	elapsed := time.Since(start)

	outcome := "success"
	if err != nil {
		outcome = strings.ToLower(string(commonerrors.CodeOf(err)))
		if outcome == "" {
			outcome = "error"
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.SetAttributes(
		attribute.String("http.method", r.method),
		attribute.String("catalog.path", r.path),
		attribute.String("catalog.outcome", outcome),
	)

	metrics.CatalogRequests.WithLabelValues(r.op, outcome).Inc()
	metrics.CatalogRequestDuration.WithLabelValues(r.op).Observe(elapsed.Seconds())
	c.obs.RecordRequest(ctx, r.op, outcome, elapsed)

	return payload, err
}

func (c *Client) roundTrip(ctx context.Context, r request) ([]byte, error) {
	target := c.config.BaseURL + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		raw, err := json.Marshal(r.body)
		if err != nil {
			return nil, fmt.Errorf("encode %s request: %w", r.op, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", r.op, err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(headerRequestID, requestID)
	if token := c.token(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	c.logger.Debug("catalog request", map[string]interface{}{
		"op":        r.op,
		"method":    r.method,
		"path":      r.path,
		"requestId": requestID,
	})

	resp, err := c.doer.Do(req)
	if err != nil {
		return nil, commonerrors.NewNetworkError(r.op, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		c.handleUnauthorized(ctx, r.op)
		return nil, commonerrors.NewUnauthenticatedError(fmt.Sprintf("op: %s", r.op))
	case resp.StatusCode == http.StatusNotFound:
		return nil, commonerrors.NewNotFoundError(r.op, r.path)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, commonerrors.NewServerError(r.op, resp.StatusCode, string(snippet))
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, commonerrors.NewNetworkError(r.op, err)
	}
	return payload, nil
}

func (c *Client) token(ctx context.Context) string {
	if c.creds == nil {
		return ""
	}
	token, err := c.creds.Token(ctx)
	if err != nil {
		c.logger.Warn("failed to load credential, sending request anonymously", map[string]interface{}{
			"error": err,
		})
		return ""
	}
	return token
}

// handleUnauthorized discards the credential and cached profile and signals
// the login redirect. The request is never retried.
func (c *Client) handleUnauthorized(ctx context.Context, op string) {
	metrics.CredentialEvictions.Inc()
	if c.creds != nil {
		if err := c.creds.Evict(ctx); err != nil {
			c.logger.Error("failed to evict credential", map[string]interface{}{
				"op":    op,
				"error": err,
			})
		}
	}
	c.logger.Warn("credential rejected, redirecting to login", map[string]interface{}{
		"op":         op,
		"entryPoint": c.config.LoginEntryPoint,
	})
	if c.onUnauthenticated != nil {
		c.onUnauthenticated(c.config.LoginEntryPoint)
	}
}

// getJSON sends a request and decodes the reply into out.
func (c *Client) getJSON(ctx context.Context, r request, out interface{}) error {
	payload, err := c.send(ctx, r)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return commonerrors.NewDecodeFailedError(r.op, err)
	}
	return nil
}

// decodeList accepts a bare JSON array or an object wrapping the array under
// one of keys.
func decodeList(op string, payload []byte, out interface{}, keys ...string) error {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	if trimmed[0] == '{' {
		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return commonerrors.NewDecodeFailedError(op, err)
		}
		for _, key := range keys {
			if raw, ok := envelope[key]; ok {
				trimmed = raw
				break
			}
		}
		if trimmed[0] == '{' {
			return commonerrors.NewDecodeFailedError(op, fmt.Errorf("no list under %v", keys))
		}
	}

	if err := json.Unmarshal(trimmed, out); err != nil {
		return commonerrors.NewDecodeFailedError(op, err)
	}
	return nil
}
