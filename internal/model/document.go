package model

import "time"

// Document represents an uploaded printable file owned by a single user.
// This is a pure domain model with no database-specific dependencies or tags.
// Size and PageCount never change once the record exists.
type Document struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"owner_id"`
	OriginalName string    `json:"original_name"`
	StoredName   string    `json:"stored_name"`
	StoragePath  string    `json:"storage_path"`
	Size         int64     `json:"size"`
	Format       string    `json:"format"`
	PageCount    *int      `json:"page_count"`
	ArtifactPath *string   `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Pages returns the page count, or zero while it is unknown.
func (d *Document) Pages() int {
	if d.PageCount == nil {
		return 0
	}
	return *d.PageCount
}

// HasArtifact reports whether a printable rendering is still stored.
func (d *Document) HasArtifact() bool {
	return d.ArtifactPath != nil && *d.ArtifactPath != ""
}
