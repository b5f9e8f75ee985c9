// Package media resolves storage paths and thumbnail URLs for provider-backed media.
package media

import (
	"strconv"
	"time"
)

const (
	StatusPending = "pending"
	StatusReady   = "ready"
	StatusFailed  = "failed"
)

// Metadata is the provider payload stored alongside a media item, usually an oEmbed document.
type Metadata map[string]any

// String returns the value stored under key when it is a string or a number.
func (m Metadata) String(key string) string {
	if m == nil {
		return ""
	}
	switch v := m[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return ""
	}
}

// Title returns the oEmbed title.
func (m Metadata) Title() string {
	return m.String("title")
}

// Type returns the oEmbed resource type, e.g. "video" or "photo".
func (m Metadata) Type() string {
	return m.String("type")
}

// ThumbnailURL returns the provider-hosted preview image.
func (m Metadata) ThumbnailURL() string {
	return m.String("thumbnail_url")
}

// Media is a provider-backed media item. ID stays nil until the item is persisted.
type Media struct {
	ID                *int64
	Name              string
	ProviderName      string
	ProviderReference string
	ProviderMetadata  Metadata
	ProviderStatus    string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// SetID assigns the persisted identifier.
func (m *Media) SetID(id int64) {
	m.ID = &id
}

// Identity returns the assigned ID or ErrInvalidIdentity.
func (m Media) Identity() (int64, error) {
	if m.ID == nil || *m.ID < 0 {
		return 0, ErrInvalidIdentity
	}
	return *m.ID, nil
}
