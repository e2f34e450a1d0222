package catalog

import "time"

// Page is the authority's page-number pagination envelope. Next and Previous
// hold absolute URLs of the adjacent pages, or null at the edges.
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// Translation is a localized name/description pair keyed by language.
type Translation struct {
	ID          int64  `json:"id"`
	LanguageID  int64  `json:"language_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// PlaceTranslation additionally localizes the place's timetable.
type PlaceTranslation struct {
	ID          int64  `json:"id"`
	LanguageID  int64  `json:"language_id"`
	Name        string `json:"name"`
	Timetable   string `json:"timetable"`
	Description string `json:"description"`
}

// Place is a catalog place with its localized labels.
type Place struct {
	ID           int64              `json:"id"`
	Image        string             `json:"image"`
	Category     int                `json:"category"`
	Address      string             `json:"address"`
	Link         string             `json:"link"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
	Translations []PlaceTranslation `json:"translations"`
}

// Event is a catalog event. Date and StartTime are the authority's date and
// time-of-day strings; Duration is in minutes.
type Event struct {
	ID           int64         `json:"id"`
	Image        string        `json:"image"`
	Date         string        `json:"date"`
	StartTime    string        `json:"start_time"`
	Duration     int           `json:"duration"`
	Artist       string        `json:"artist"`
	Cost         string        `json:"cost"`
	Currency     string        `json:"currency"`
	Category     int           `json:"category"`
	Address      string        `json:"address"`
	Link         string        `json:"link"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
	Translations []Translation `json:"translations"`
}

// CalendarEvent links the authenticated user to a bookmarked event.
type CalendarEvent struct {
	ID     int64 `json:"id"`
	User   int64 `json:"user"`
	Event  int64 `json:"event"`
	Status int   `json:"status"`
}

// Souvenir is a souvenir shop listing.
type Souvenir struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Link    string `json:"link"`
	Image   string `json:"image"`
}

// App is a recommended companion application.
type App struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	Description string `json:"description"`
}

// Advertisement is an active promo banner, highest priority first.
type Advertisement struct {
	ID           int64         `json:"id"`
	Image        string        `json:"image"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
	IsActive     bool          `json:"is_active"`
	Priority     int           `json:"priority"`
	Translations []Translation `json:"translations"`
}
