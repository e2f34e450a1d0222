// Package tourcat is a client SDK for the tourism catalog API. It wires the
// credential store, the dispatching layer with transparent session renewal,
// the session manager and the typed catalog client into one assembly.
package tourcat

import (
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/tourcat/tourcat-go/api"
	"github.com/tourcat/tourcat-go/catalog"
	"github.com/tourcat/tourcat-go/credentials"
	"github.com/tourcat/tourcat-go/session"
)

// Options configures a Client.
type Options struct {
	// BaseURL roots all API calls, e.g. "https://example.com/api/v1".
	BaseURL string
	// Timeout bounds each HTTP call. Zero means 15 seconds.
	Timeout time.Duration
	// StorageDir is where credentials are persisted between runs. Empty
	// keeps them in memory only.
	StorageDir string
	// Logger receives client logs. Nil discards them.
	Logger *zerolog.Logger
	// HTTPClient overrides the transport. Nil builds one from Timeout.
	HTTPClient *http.Client
}

// Client is the assembled SDK.
type Client struct {
	Session *session.Manager
	Catalog *catalog.Client
	API     *api.Client
	Store   credentials.Store

	badger *credentials.BadgerStore
}

// New assembles a Client from the options.
func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("[tourcat.New] BaseURL is required")
	}

	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	var store credentials.Store
	var badgerStore *credentials.BadgerStore
	if opts.StorageDir != "" {
		var err error
		badgerStore, err = credentials.OpenBadger(opts.StorageDir, logger)
		if err != nil {
			return nil, err
		}
		store = badgerStore
	} else {
		store = credentials.NewMemoryStore()
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout == 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	dispatcher, err := api.NewDispatcher(opts.BaseURL, store,
		api.WithHTTPClient(httpClient),
		api.WithDispatcherLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	apiClient, err := api.NewClient(dispatcher, store, api.WithClientLogger(logger))
	if err != nil {
		return nil, err
	}

	sess, err := session.NewManager(apiClient, store, session.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	cat, err := catalog.New(apiClient)
	if err != nil {
		return nil, err
	}

	return &Client{
		Session: sess,
		Catalog: cat,
		API:     apiClient,
		Store:   store,
		badger:  badgerStore,
	}, nil
}

// Close releases the credential database, if one was opened.
func (c *Client) Close() error {
	if c.badger != nil {
		return c.badger.Close()
	}
	return nil
}
