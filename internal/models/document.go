package models

import "time"

// Document is the merged view of a stored blob and its metadata overlay.
// The blob listing is authoritative for existence and provenance; the
// metadata row, when present, is authoritative for name, tags, summary
// and notes.
type Document struct {
	Path             string     `json:"path"`
	Name             string     `json:"name"`
	Tags             []string   `json:"tag"`
	Summary          *string    `json:"summary"`
	SummaryUpdatedAt *time.Time `json:"summary_updated_at"`
	NoteTaking       *string    `json:"note_taking"`
	Size             int64      `json:"size"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Metadata is one row of the metadata table. StoragePath is the only key
// used for joins; ID is internal and surfaces only in the upload response.
type Metadata struct {
	ID               int64      `json:"id"`
	DocumentName     string     `json:"document_name"`
	StoragePath      string     `json:"storage_path"`
	Tags             []string   `json:"tag"`
	Summary          *string    `json:"summary"`
	SummaryUpdatedAt *time.Time `json:"summary_updated_at"`
	NoteTaking       *string    `json:"note_taking"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}
