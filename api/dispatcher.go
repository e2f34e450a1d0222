package api

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tourcat/tourcat-go/credentials"
)

// maxBodySize caps how much of a response body is read. The catalog API
// serves paginated JSON; anything larger indicates a misbehaving server.
const maxBodySize = 4 * 1024 * 1024 // 4MB

// Dispatcher issues raw calls against the catalog API. If an access
// credential is present in the store it is attached as a bearer authorization
// header; the dispatcher itself never interprets status codes and never
// mutates the store.
type Dispatcher struct {
	baseURL    *url.URL
	store      credentials.Store
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*http.Response]
	log        zerolog.Logger
}

// DispatcherOption modifies a Dispatcher during construction.
type DispatcherOption func(*Dispatcher)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(client *http.Client) DispatcherOption {
	return func(d *Dispatcher) {
		d.httpClient = client
	}
}

// WithDispatcherLogger sets the dispatcher's logger.
func WithDispatcherLogger(log zerolog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.log = log
	}
}

// NewDispatcher creates a Dispatcher for the API rooted at baseURL.
func NewDispatcher(baseURL string, store credentials.Store, options ...DispatcherOption) (*Dispatcher, error) {
	if store == nil {
		return nil, errors.New("[NewDispatcher] credential store is required")
	}

	parsed, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, errors.Wrap(err, "[NewDispatcher] base URL")
	}

	d := &Dispatcher{
		baseURL:    parsed,
		store:      store,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		log:        zerolog.Nop(),
	}

	for _, opt := range options {
		opt(d)
	}

	// The breaker guards against a dead transport. HTTP statuses are valid
	// outcomes and never count as breaker failures.
	d.breaker = gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:    "catalog-api",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			d.log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
		},
	})

	return d, nil
}

// Do executes the call and returns its raw outcome. Transport failures
// return a nil outcome and an error; any HTTP response, whatever its status,
// returns an outcome and a nil error.
func (d *Dispatcher) Do(ctx context.Context, call *Call) (*Outcome, error) {
	req, err := d.buildRequest(ctx, call)
	if err != nil {
		return nil, err
	}

	requestID := uuid.New().String()
	req.Header.Set("X-Request-ID", requestID)

	started := time.Now()
	resp, err := d.breaker.Execute(func() (*http.Response, error) {
		return d.httpClient.Do(req)
	})
	if err != nil {
		d.log.Debug().
			Err(err).
			Str("method", call.Method).
			Str("path", call.Path).
			Str("request_id", requestID).
			Msg("transport failure")
		return nil, errors.Wrapf(err, "Dispatcher.Do %s %s", call.Method, call.Path)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, errors.Wrapf(err, "Dispatcher.Do read body %s %s", call.Method, call.Path)
	}

	d.log.Debug().
		Str("method", call.Method).
		Str("path", call.Path).
		Int("status", resp.StatusCode).
		Str("request_id", requestID).
		Dur("elapsed", time.Since(started)).
		Msg("call completed")

	return &Outcome{
		Status: resp.StatusCode,
		Header: resp.Header,
		Body:   body,
	}, nil
}

func (d *Dispatcher) buildRequest(ctx context.Context, call *Call) (*http.Request, error) {
	target := *d.baseURL
	target.Path = strings.TrimSuffix(target.Path, "/") + call.Path
	if len(call.Query) > 0 {
		target.RawQuery = call.Query.Encode()
	}

	var body io.Reader
	if call.Body != nil {
		encoded, err := json.Marshal(call.Body)
		if err != nil {
			return nil, errors.Wrapf(err, "Dispatcher.buildRequest %s %s", call.Method, call.Path)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, call.Method, target.String(), body)
	if err != nil {
		return nil, errors.Wrapf(err, "Dispatcher.buildRequest %s %s", call.Method, call.Path)
	}

	if call.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	// The access credential is read at dispatch time, so a replay after a
	// renewal picks up the fresh token automatically.
	if !call.Authless {
		if creds := d.store.Get(); creds.HasAccess() {
			req.Header.Set("Authorization", "Bearer "+creds.Access)
		}
	}

	return req, nil
}
