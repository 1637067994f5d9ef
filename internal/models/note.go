// Package models defines the domain types shared across feedpost.
package models

import "time"

// NoteMetadata is a lightweight representation returned by list operations.
type NoteMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PublishRecord links a vault note to the item it was published as.
type PublishRecord struct {
	Path        string    `json:"path"`
	ItemID      string    `json:"item_id"`
	ItemURL     string    `json:"item_url,omitempty"`
	Title       string    `json:"title"`
	Status      string    `json:"status"`
	Checksum    string    `json:"checksum"`
	PublishedAt time.Time `json:"published_at"`
}
