package domain

import "time"

// Photo is an image owned by exactly one user.
type Photo struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	URL         string    `json:"url"`
	Description string    `json:"description"`
	DateAdded   time.Time `json:"date_added"`
	IsMain      bool      `json:"is_main"`
	// PublicID is the object key in blob storage.
	PublicID string `json:"-"`
}
