package credentials

// Credentials holds the bearer tokens issued by the remote authority. Both
// tokens are opaque strings; the client never inspects their structure. An
// empty string means the credential is absent.
type Credentials struct {
	Access  string // short-lived token attached to authorized API calls
	Renewal string // longer-lived token exchanged for a fresh access token
}

// HasAccess reports whether an access credential is present.
func (c Credentials) HasAccess() bool { return c.Access != "" }

// HasRenewal reports whether a renewal credential is present.
func (c Credentials) HasRenewal() bool { return c.Renewal != "" }

// Store is the process-wide holder of the current credentials. All operations
// are synchronous and idempotent; absence is represented by empty strings,
// never by an error. Implementations must be safe for concurrent use with
// last-write-wins semantics, since a renewal may overwrite the access token
// while another call is reading it.
type Store interface {
	Get() Credentials
	SetAccess(access string)
	SetBoth(access, renewal string)
	Clear()
}
