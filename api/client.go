package api

import (
	"context"
	"net/http"
	"net/url"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/tourcat/tourcat-go/credentials"
	clienterrors "github.com/tourcat/tourcat-go/internal/errors"
)

// renewPath is the authority endpoint that exchanges a renewal credential for
// a fresh access credential. The call is always authless: sending the expired
// access token alongside would defeat the renewal.
const renewPath = "/users/token/refresh/"

type renewRequest struct {
	Refresh string `json:"refresh"`
}

type renewResponse struct {
	Access string `json:"access"`
}

// Client dispatches calls and transparently renews the session when the
// authority rejects the access credential. Each call is renewed and replayed
// at most once; concurrent unauthorized calls renew independently, which is
// accepted because renewal is idempotent on the authority side.
type Client struct {
	dispatcher *Dispatcher
	store      credentials.Store
	log        zerolog.Logger

	mu        sync.Mutex
	signedOut []func()
}

// ClientOption modifies a Client during construction.
type ClientOption func(*Client)

// WithClientLogger sets the client's logger.
func WithClientLogger(log zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.log = log
	}
}

// NewClient wraps a Dispatcher with the renewal protocol.
func NewClient(dispatcher *Dispatcher, store credentials.Store, options ...ClientOption) (*Client, error) {
	if dispatcher == nil {
		return nil, errors.New("[NewClient] dispatcher is required")
	}
	if store == nil {
		return nil, errors.New("[NewClient] credential store is required")
	}

	c := &Client{
		dispatcher: dispatcher,
		store:      store,
		log:        zerolog.Nop(),
	}

	for _, opt := range options {
		opt(c)
	}

	return c, nil
}

// OnSignedOut registers fn to run when an unrecoverable renewal failure tears
// the session down. The client only emits the event; how to react (clearing
// cached state, navigating to a login surface) is the subscriber's decision.
func (c *Client) OnSignedOut(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.signedOut = append(c.signedOut, fn)
}

// Do executes the call, driving the renewal protocol on an unauthorized
// outcome:
//
//   - success, or any failure other than unauthorized: propagated unchanged.
//   - unauthorized, not yet retried, renewal credential present: one renewal
//     call is issued. On success the new access credential is stored and the
//     call is replayed exactly once; that outcome is returned whatever it is.
//     On failure the store is cleared, the signed-out event fires, and the
//     ORIGINAL unauthorized outcome is returned.
//   - unauthorized but already retried, or no renewal credential: propagated
//     unchanged.
//
// Authless calls are exempt from the protocol entirely: they carry no access
// credential, so an unauthorized outcome means the authority rejected the
// request itself (bad password, invalid renewal token), not the session.
// Transport errors are returned untouched and never trigger renewal.
func (c *Client) Do(ctx context.Context, call *Call) (*Outcome, error) {
	outcome, err := c.dispatcher.Do(ctx, call)
	if err != nil {
		return nil, err
	}

	if call.Authless || call.Retried || !outcome.Unauthorized() {
		return outcome, nil
	}

	creds := c.store.Get()
	if !creds.HasRenewal() {
		return outcome, nil
	}

	access, renewErr := c.renew(ctx, creds.Renewal)
	if renewErr != nil {
		c.log.Warn().Err(renewErr).Msg("session renewal failed, signing out")
		c.store.Clear()
		c.notifySignedOut()
		return outcome, nil
	}

	c.store.SetAccess(access)
	call.Retried = true
	return c.dispatcher.Do(ctx, call)
}

func (c *Client) renew(ctx context.Context, renewal string) (string, error) {
	call := &Call{
		Method:   http.MethodPost,
		Path:     renewPath,
		Body:     renewRequest{Refresh: renewal},
		Authless: true,
	}

	outcome, err := c.dispatcher.Do(ctx, call)
	if err != nil {
		return "", errors.Wrap(err, "Client.renew")
	}
	if !outcome.OK() {
		return "", clienterrors.Wrapf(clienterrors.ErrRenewalRejected, "status %d", outcome.Status)
	}

	var resp renewResponse
	if err := outcome.Decode(&resp); err != nil {
		return "", errors.Wrap(err, "Client.renew")
	}
	if resp.Access == "" {
		return "", clienterrors.ErrRenewalRejected
	}

	return resp.Access, nil
}

func (c *Client) notifySignedOut() {
	c.mu.Lock()
	subscribers := make([]func(), len(c.signedOut))
	copy(subscribers, c.signedOut)
	c.mu.Unlock()

	for _, fn := range subscribers {
		fn()
	}
}

// Get issues an authorized GET and decodes the response into v when v is
// non-nil.
func (c *Client) Get(ctx context.Context, path string, query url.Values, v any) error {
	return c.request(ctx, &Call{Method: http.MethodGet, Path: path, Query: query}, v)
}

// Post issues an authorized POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, v any) error {
	return c.request(ctx, &Call{Method: http.MethodPost, Path: path, Body: body}, v)
}

// Patch issues an authorized PATCH with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body, v any) error {
	return c.request(ctx, &Call{Method: http.MethodPatch, Path: path, Body: body}, v)
}

// Delete issues an authorized DELETE.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.request(ctx, &Call{Method: http.MethodDelete, Path: path}, nil)
}

func (c *Client) request(ctx context.Context, call *Call, v any) error {
	outcome, err := c.Do(ctx, call)
	if err != nil {
		return err
	}
	if err := outcome.Err(); err != nil {
		return err
	}
	if v == nil {
		return nil
	}
	return outcome.Decode(v)
}
