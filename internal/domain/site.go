package domain

import "time"

// Site holds the instance-wide presentation settings.
type Site struct {
	Title     string
	Headline  string
	UpdatedAt time.Time
}
