package models

import (
	"time"

	"github.com/google/uuid"
)

// Link is the sole persistent entity: a short code mapped to a target URL
// plus its click accounting. Only the redirect operation mutates TotalClicks
// and LastClickedAt; every other field is immutable after creation.
type Link struct {
	ID            uuid.UUID  `json:"id"`
	ShortCode     string     `json:"shortCode"`
	TargetURL     string     `json:"targetUrl"`
	TotalClicks   int64      `json:"totalClicks"`
	CreatedAt     time.Time  `json:"createdAt"`
	LastClickedAt *time.Time `json:"lastClickedAt,omitempty"`
}

type CreateLinkInput struct {
	TargetURL  string
	CustomCode string
}
