package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"github.com/tourcat/tourcat-go/api"
	"github.com/tourcat/tourcat-go/credentials/storefakes"
)

const (
	accessA1 = "A1"
	accessA2 = "A2"
	renewR1  = "R1"
)

// authority is a scripted double for the remote catalog/session API. It
// records every request it sees and answers catalog calls based on the
// bearer token, and refresh calls based on the configured outcome.
type authority struct {
	t *testing.T

	mu       sync.Mutex
	requests []recordedRequest

	validAccess   string // bearer token accepted on catalog calls
	refreshStatus int    // status answered on the refresh endpoint
	refreshAccess string // access token minted on refresh success
}

type recordedRequest struct {
	Method string
	Path   string
	Bearer string
	Body   map[string]any
}

func (a *authority) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Bearer: bearerOf(r),
		}
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&rec.Body)
		}
		a.mu.Lock()
		a.requests = append(a.requests, rec)
		a.mu.Unlock()

		if r.URL.Path == "/users/token/refresh/" {
			if a.refreshStatus != http.StatusOK {
				w.WriteHeader(a.refreshStatus)
				_, _ = w.Write([]byte(`{"detail":"Token is invalid or expired"}`))
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]string{"access": a.refreshAccess})
			return
		}

		if rec.Bearer != a.validAccess {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"Given token not valid for any token type"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"payload":"P"}`))
	})
}

func (a *authority) recorded() []recordedRequest {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]recordedRequest, len(a.requests))
	copy(out, a.requests)
	return out
}

func (a *authority) refreshCalls() int {
	n := 0
	for _, r := range a.recorded() {
		if r.Path == "/users/token/refresh/" {
			n++
		}
	}
	return n
}

func bearerOf(r *http.Request) string {
	const prefix = "Bearer "
	header := r.Header.Get("Authorization")
	if len(header) > len(prefix) && header[:len(prefix)] == prefix {
		return header[len(prefix):]
	}
	return ""
}

type clientFixture struct {
	authority *authority
	server    *httptest.Server
	store     *storefakes.FakeStore
	client    *api.Client
}

func setupClientFixture(t *testing.T, auth *authority) *clientFixture {
	t.Helper()

	auth.t = t
	server := httptest.NewServer(auth.handler())
	t.Cleanup(server.Close)

	store := storefakes.NewFakeStore()
	dispatcher, err := api.NewDispatcher(server.URL, store)
	require.NoError(t, err)

	client, err := api.NewClient(dispatcher, store)
	require.NoError(t, err)

	return &clientFixture{
		authority: auth,
		server:    server,
		store:     store,
		client:    client,
	}
}

func TestRenewalSuccessReplaysOnce(t *testing.T) {
	f := setupClientFixture(t, &authority{
		validAccess:   accessA2,
		refreshStatus: http.StatusOK,
		refreshAccess: accessA2,
	})
	f.store.Seed(accessA1, renewR1)

	outcome, err := f.client.Do(context.Background(), &api.Call{Method: http.MethodGet, Path: "/places/"})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, outcome.Status)
	require.JSONEq(t, `{"payload":"P"}`, string(outcome.Body))

	// One failing call, one renewal, one replay.
	requests := f.authority.recorded()
	require.Len(t, requests, 3)
	require.Equal(t, "/places/", requests[0].Path)
	require.Equal(t, accessA1, requests[0].Bearer)
	require.Equal(t, "/users/token/refresh/", requests[1].Path)
	require.Equal(t, "", requests[1].Bearer)
	require.Equal(t, renewR1, requests[1].Body["refresh"])
	require.Equal(t, "/places/", requests[2].Path)
	require.Equal(t, accessA2, requests[2].Bearer)

	// Renewal updates only the access credential.
	creds := f.store.Get()
	require.Equal(t, accessA2, creds.Access)
	require.Equal(t, renewR1, creds.Renewal)
	require.Equal(t, []string{accessA2}, f.store.SetAccessCalls)
	require.Zero(t, f.store.ClearCalls)
}

func TestRenewalFailureTearsDownSession(t *testing.T) {
	f := setupClientFixture(t, &authority{
		validAccess:   "something-else",
		refreshStatus: http.StatusUnauthorized,
	})
	f.store.Seed(accessA1, renewR1)

	signedOut := 0
	f.client.OnSignedOut(func() { signedOut++ })

	outcome, err := f.client.Do(context.Background(), &api.Call{Method: http.MethodGet, Path: "/places/"})
	require.NoError(t, err)

	// The caller receives the ORIGINAL unauthorized outcome.
	require.Equal(t, http.StatusUnauthorized, outcome.Status)
	require.Contains(t, string(outcome.Body), "not valid")

	require.Equal(t, 1, f.authority.refreshCalls())
	require.Equal(t, 1, signedOut)
	require.Equal(t, 1, f.store.ClearCalls)

	creds := f.store.Get()
	require.Empty(t, creds.Access)
	require.Empty(t, creds.Renewal)
}

func TestAuthlessCallNeverTriggersRenewal(t *testing.T) {
	// A rejected login or registration comes back unauthorized, but the call
	// carried no access credential, so there is nothing to renew. A stale
	// session in the store must survive a wrong-password attempt untouched.
	f := setupClientFixture(t, &authority{
		validAccess:   "other",
		refreshStatus: http.StatusOK,
		refreshAccess: accessA2,
	})
	f.store.Seed(accessA1, renewR1)

	signedOut := 0
	f.client.OnSignedOut(func() { signedOut++ })

	outcome, err := f.client.Do(context.Background(), &api.Call{
		Method:   http.MethodPost,
		Path:     "/users/token/",
		Body:     map[string]string{"email": "u@x.com", "password": "wrong"},
		Authless: true,
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, outcome.Status)

	require.Zero(t, f.authority.refreshCalls())
	require.Zero(t, f.store.ClearCalls)
	require.Zero(t, signedOut)
	require.Equal(t, accessA1, f.store.Get().Access)
	require.Equal(t, renewR1, f.store.Get().Renewal)
}

func TestNoRenewalCredentialPropagatesUnauthorized(t *testing.T) {
	f := setupClientFixture(t, &authority{validAccess: "other"})
	f.store.Seed(accessA1, "")

	outcome, err := f.client.Do(context.Background(), &api.Call{Method: http.MethodGet, Path: "/places/"})
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, outcome.Status)
	require.Zero(t, f.authority.refreshCalls())
	require.Zero(t, f.store.ClearCalls)
}

func TestRetriedCallIsNeverRenewedAgain(t *testing.T) {
	f := setupClientFixture(t, &authority{
		validAccess:   "other",
		refreshStatus: http.StatusOK,
		refreshAccess: accessA2,
	})
	f.store.Seed(accessA1, renewR1)

	call := &api.Call{Method: http.MethodGet, Path: "/places/", Retried: true}
	outcome, err := f.client.Do(context.Background(), call)
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, outcome.Status)
	require.Zero(t, f.authority.refreshCalls())
}

func TestReplayFailingAgainDoesNotRenewTwice(t *testing.T) {
	// The minted token is still rejected by catalog calls, so the replay
	// comes back unauthorized too. Exactly one renewal must happen.
	f := setupClientFixture(t, &authority{
		validAccess:   "never-valid",
		refreshStatus: http.StatusOK,
		refreshAccess: accessA2,
	})
	f.store.Seed(accessA1, renewR1)

	call := &api.Call{Method: http.MethodGet, Path: "/places/"}
	outcome, err := f.client.Do(context.Background(), call)
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, outcome.Status)
	require.True(t, call.Retried)
	require.Equal(t, 1, f.authority.refreshCalls())
}

func TestNonUnauthorizedFailurePassesThrough(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	store := storefakes.NewFakeStore()
	store.Seed(accessA1, renewR1)
	dispatcher, err := api.NewDispatcher(server.URL, store)
	require.NoError(t, err)
	client, err := api.NewClient(dispatcher, store)
	require.NoError(t, err)

	outcome, err := client.Do(context.Background(), &api.Call{Method: http.MethodGet, Path: "/places/"})
	require.NoError(t, err)
	require.Equal(t, http.StatusServiceUnavailable, outcome.Status)

	creds := store.Get()
	require.Equal(t, accessA1, creds.Access)
	require.Equal(t, renewR1, creds.Renewal)
}

func TestTransportErrorNeverTriggersRenewal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on

	store := storefakes.NewFakeStore()
	store.Seed(accessA1, renewR1)
	dispatcher, err := api.NewDispatcher(server.URL, store)
	require.NoError(t, err)
	client, err := api.NewClient(dispatcher, store)
	require.NoError(t, err)

	outcome, err := client.Do(context.Background(), &api.Call{Method: http.MethodGet, Path: "/places/"})
	require.Error(t, err)
	require.Nil(t, outcome)
	require.Zero(t, store.ClearCalls)
}

func TestConcurrentUnauthorizedCallsRenewIndependently(t *testing.T) {
	// Two concurrent calls may each trigger their own renewal. There is no
	// cross-call coordination; renewal is idempotent on the authority side.
	var refreshes atomic.Int64
	var gate sync.WaitGroup
	gate.Add(2)

	store := storefakes.NewFakeStore()
	store.Seed(accessA1, renewR1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/users/token/refresh/" {
			refreshes.Add(1)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"access":"` + accessA2 + `"}`))
			return
		}
		if bearerOf(r) != accessA2 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(server.Close)

	dispatcher, err := api.NewDispatcher(server.URL, store)
	require.NoError(t, err)
	client, err := api.NewClient(dispatcher, store)
	require.NoError(t, err)

	type result struct {
		outcome *api.Outcome
		err     error
	}
	results := make(chan result, 2)
	for range 2 {
		go func() {
			defer gate.Done()
			outcome, err := client.Do(context.Background(), &api.Call{Method: http.MethodGet, Path: "/places/"})
			results <- result{outcome: outcome, err: err}
		}()
	}
	gate.Wait()
	close(results)

	for res := range results {
		require.NoError(t, res.err)
		require.Equal(t, http.StatusOK, res.outcome.Status)
	}
	// At least one renewal happened; two are legal when the calls interleave.
	require.GreaterOrEqual(t, refreshes.Load(), int64(1))
	require.LessOrEqual(t, refreshes.Load(), int64(2))
	require.Equal(t, accessA2, store.Get().Access)
	require.Equal(t, renewR1, store.Get().Renewal)
}
