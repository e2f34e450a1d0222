package catalog

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/pkg/errors"

	"github.com/tourcat/tourcat-go/api"
)

// Catalog API endpoints. Public reads accept an optional bearer credential;
// the calendar endpoints require one.
const (
	placesPath         = "/places/"
	eventsPath         = "/events/events/"
	calendarPath       = "/events/calendar/"
	souvenirsPath      = "/info/souvenirs/"
	appsPath           = "/info/apps/"
	advertisementsPath = "/info/advertisements/"
)

// Client is a typed read-through view over the catalog API. All calls go
// through the api.Client, so authorized calls inherit the renewal protocol.
type Client struct {
	api *api.Client
}

// New creates a catalog client.
func New(apiClient *api.Client) (*Client, error) {
	if apiClient == nil {
		return nil, errors.New("[catalog.New] api client is required")
	}
	return &Client{api: apiClient}, nil
}

// ListParams narrows a paginated listing. The zero value lists everything.
type ListParams struct {
	Page     int
	Category *int // the authority's categories start at 0, so nil means unfiltered
}

func (p ListParams) values() url.Values {
	query := url.Values{}
	if p.Page > 0 {
		query.Set("page", strconv.Itoa(p.Page))
	}
	if p.Category != nil {
		query.Set("category", strconv.Itoa(*p.Category))
	}
	return query
}

// Places lists catalog places.
func (c *Client) Places(ctx context.Context, params ListParams) (*Page[Place], error) {
	var page Page[Place]
	if err := c.api.Get(ctx, placesPath, params.values(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Place fetches a single place by ID.
func (c *Client) Place(ctx context.Context, id int64) (*Place, error) {
	var place Place
	if err := c.api.Get(ctx, fmt.Sprintf("%s%d/", placesPath, id), nil, &place); err != nil {
		return nil, err
	}
	return &place, nil
}

// Events lists catalog events.
func (c *Client) Events(ctx context.Context, params ListParams) (*Page[Event], error) {
	var page Page[Event]
	if err := c.api.Get(ctx, eventsPath, params.values(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Event fetches a single event by ID.
func (c *Client) Event(ctx context.Context, id int64) (*Event, error) {
	var event Event
	if err := c.api.Get(ctx, fmt.Sprintf("%s%d/", eventsPath, id), nil, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// CalendarEvents lists the authenticated user's bookmarked events.
func (c *Client) CalendarEvents(ctx context.Context) ([]CalendarEvent, error) {
	var page Page[CalendarEvent]
	if err := c.api.Get(ctx, calendarPath, nil, &page); err != nil {
		return nil, err
	}
	return page.Results, nil
}

// AddCalendarEvent bookmarks an event on the user's calendar.
func (c *Client) AddCalendarEvent(ctx context.Context, eventID int64, status int) (*CalendarEvent, error) {
	body := struct {
		Event  int64 `json:"event"`
		Status int   `json:"status"`
	}{Event: eventID, Status: status}

	var entry CalendarEvent
	if err := c.api.Post(ctx, calendarPath, body, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// RemoveCalendarEvent deletes a calendar entry by its entry ID.
func (c *Client) RemoveCalendarEvent(ctx context.Context, id int64) error {
	return c.api.Delete(ctx, fmt.Sprintf("%s%d/", calendarPath, id))
}

// Souvenirs lists souvenir shops.
func (c *Client) Souvenirs(ctx context.Context) ([]Souvenir, error) {
	var page Page[Souvenir]
	if err := c.api.Get(ctx, souvenirsPath, nil, &page); err != nil {
		return nil, err
	}
	return page.Results, nil
}

// Apps lists recommended companion applications.
func (c *Client) Apps(ctx context.Context) ([]App, error) {
	var page Page[App]
	if err := c.api.Get(ctx, appsPath, nil, &page); err != nil {
		return nil, err
	}
	return page.Results, nil
}

// Advertisements lists active promos, highest priority first.
func (c *Client) Advertisements(ctx context.Context) ([]Advertisement, error) {
	var page Page[Advertisement]
	if err := c.api.Get(ctx, advertisementsPath, nil, &page); err != nil {
		return nil, err
	}
	return page.Results, nil
}
