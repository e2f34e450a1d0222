package api

import (
	"net/http"
	"net/url"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

// Call describes one outbound request to the catalog API. A Call is owned by
// its issuer for the duration of a single request/response/replay cycle and
// must not be reused after the outcome has been returned.
type Call struct {
	Method string
	Path   string
	Query  url.Values
	Body   any // JSON-encoded when non-nil

	// Authless skips credential attachment entirely. Login, registration and
	// credential renewal itself must never carry a stale or absent access
	// token into the authority endpoint.
	Authless bool

	// Retried marks that this call has already been replayed after a
	// credential renewal. A call is replayed at most once, even if the
	// replay fails with the same status.
	Retried bool
}

// Outcome is the raw result of a completed call. The dispatcher returns it
// without interpreting the status code; that is the caller's job.
type Outcome struct {
	Status int
	Header http.Header
	Body   []byte
}

// OK reports whether the outcome carries a 2xx status.
func (o *Outcome) OK() bool { return o.Status >= 200 && o.Status < 300 }

// Unauthorized reports whether the authority rejected the access credential.
func (o *Outcome) Unauthorized() bool { return o.Status == http.StatusUnauthorized }

// Decode unmarshals the response body into v.
func (o *Outcome) Decode(v any) error {
	if err := json.Unmarshal(o.Body, v); err != nil {
		return errors.Wrap(err, "Outcome.Decode")
	}
	return nil
}

// Err returns nil for 2xx outcomes and an *Error describing the failure
// otherwise.
func (o *Outcome) Err() error {
	if o.OK() {
		return nil
	}
	return newError(o)
}
