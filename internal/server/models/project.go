package models

import "time"

// Project is a portfolio entry.
//
// Duration is computed from StartDate and EndDate on every write and stored
// as text. Technologies holds vocabulary keys in vocabulary order.
// ImageKey is the storage key of the image on the media host; ImageURL is
// its public address.
type Project struct {
	ID           string
	UserID       string
	Title        string
	StartDate    time.Time
	EndDate      time.Time
	Duration     string
	Technologies []string
	Description  string
	ImageURL     string
	ImageKey     string
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// Owner is populated by lookups that join the users table.
	Owner *Owner
}

// Owner holds the public fields of a project's author.
type Owner struct {
	ID    string
	Name  string
	Email string
}

// HasTech reports whether key is among the project's technologies.
func (p *Project) HasTech(key string) bool {
	for _, t := range p.Technologies {
		if t == key {
			return true
		}
	}
	return false
}

// Image is an object stored on the media host.
type Image struct {
	URL string
	Key string
}
