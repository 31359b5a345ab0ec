package types

import "time"

// Document is the metadata record for an uploaded file. The payload itself
// lives in blob storage under StorageKey and is never loaded during listing.
type Document struct {
	ID          int64     `db:"id" json:"id"`
	OwnerID     int64     `db:"owner_id" json:"ownerId"`
	Name        string    `db:"name" json:"name"`
	ContentType string    `db:"content_type" json:"contentType"`
	SizeBytes   int64     `db:"size_bytes" json:"sizeBytes"`
	StorageKey  string    `db:"storage_key" json:"-"`
	UploadedAt  time.Time `db:"uploaded_at" json:"uploadedAt"`
}
