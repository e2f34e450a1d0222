package catalog_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tourcat/tourcat-go/api"
	"github.com/tourcat/tourcat-go/catalog"
	"github.com/tourcat/tourcat-go/credentials/storefakes"
)

const placesPage = `{
	"count": 26,
	"next": "http://localhost/api/v1/places/?page=2",
	"previous": null,
	"results": [
		{
			"id": 7,
			"image": "https://cdn.example.com/places/7.jpg",
			"category": 1,
			"address": "Dostyk Ave 1",
			"link": "https://example.com",
			"created_at": "2024-01-10T12:00:00Z",
			"updated_at": "2024-02-01T08:30:00Z",
			"translations": [
				{"id": 1, "language_id": 1, "name": "Opera House", "timetable": "10:00-22:00", "description": "Historic opera house"},
				{"id": 2, "language_id": 2, "name": "Опера", "timetable": "10:00-22:00", "description": "Исторический оперный театр"}
			]
		}
	]
}`

type catalogFixture struct {
	requests []*http.Request
	client   *catalog.Client
	store    *storefakes.FakeStore
}

func setupCatalogFixture(t *testing.T, respond func(w http.ResponseWriter, r *http.Request)) *catalogFixture {
	t.Helper()

	f := &catalogFixture{store: storefakes.NewFakeStore()}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.requests = append(f.requests, r.Clone(r.Context()))
		respond(w, r)
	}))
	t.Cleanup(server.Close)

	dispatcher, err := api.NewDispatcher(server.URL, f.store)
	require.NoError(t, err)
	apiClient, err := api.NewClient(dispatcher, f.store)
	require.NoError(t, err)
	f.client, err = catalog.New(apiClient)
	require.NoError(t, err)
	return f
}

func TestPlacesDecodesPaginatedListing(t *testing.T) {
	f := setupCatalogFixture(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(placesPage))
	})

	category := 1
	page, err := f.client.Places(context.Background(), catalog.ListParams{Page: 1, Category: &category})
	require.NoError(t, err)

	require.Equal(t, 26, page.Count)
	require.NotNil(t, page.Next)
	require.Nil(t, page.Previous)
	require.Len(t, page.Results, 1)

	place := page.Results[0]
	require.Equal(t, int64(7), place.ID)
	require.Equal(t, 1, place.Category)
	require.Len(t, place.Translations, 2)
	require.Equal(t, "Опера", place.Translations[1].Name)

	require.Equal(t, "/places/", f.requests[0].URL.Path)
	require.Equal(t, "1", f.requests[0].URL.Query().Get("category"))
	require.Equal(t, "1", f.requests[0].URL.Query().Get("page"))
}

func TestAddCalendarEventCarriesCredential(t *testing.T) {
	f := setupCatalogFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": 5, "user": 1, "event": 42, "status": 0}`))
	})
	f.store.Seed("A1", "R1")

	entry, err := f.client.AddCalendarEvent(context.Background(), 42, 0)
	require.NoError(t, err)
	require.Equal(t, int64(5), entry.ID)
	require.Equal(t, int64(42), entry.Event)

	require.Equal(t, http.MethodPost, f.requests[0].Method)
	require.Equal(t, "/events/calendar/", f.requests[0].URL.Path)
	require.Equal(t, "Bearer A1", f.requests[0].Header.Get("Authorization"))
}

func TestRemoveCalendarEvent(t *testing.T) {
	f := setupCatalogFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	f.store.Seed("A1", "R1")

	require.NoError(t, f.client.RemoveCalendarEvent(context.Background(), 5))
	require.Equal(t, http.MethodDelete, f.requests[0].Method)
	require.Equal(t, "/events/calendar/5/", f.requests[0].URL.Path)
}

func TestEventFetchesDetail(t *testing.T) {
	f := setupCatalogFixture(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"id": 42, "image": "x", "date": "2024-06-01", "start_time": "19:30:00",
			"duration": 90, "artist": "Quartet", "cost": "5000.00", "currency": "KZT",
			"category": 2, "address": "Abay Ave 10", "link": "",
			"created_at": "2024-01-10T12:00:00Z", "updated_at": "2024-01-10T12:00:00Z",
			"translations": []
		}`))
	})

	event, err := f.client.Event(context.Background(), 42)
	require.NoError(t, err)
	require.Equal(t, int64(42), event.ID)
	require.Equal(t, "2024-06-01", event.Date)
	require.Equal(t, 90, event.Duration)
	require.Equal(t, "/events/events/42/", f.requests[0].URL.Path)
}

func TestNotFoundSurfacesAPIError(t *testing.T) {
	f := setupCatalogFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"Not found."}`))
	})

	_, err := f.client.Place(context.Background(), 999)
	require.Error(t, err)

	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusNotFound, apiErr.Status)
}
