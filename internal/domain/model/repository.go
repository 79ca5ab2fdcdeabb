package model

import "time"

// Repository is a user-added remote package index source.
type Repository struct {
	ID          string
	DisplayName string
	URL         string
	// Headers are sent verbatim when fetching the repository index,
	// typically for token-gated repositories.
	Headers map[string]string
	AddedAt time.Time
}
