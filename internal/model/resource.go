package model

import (
	"encoding/hex"

	"golang.org/x/crypto/sha3"
)

// Resource describes one local file written into a document's image directory.
type Resource struct {
	// URL is the normalized absolute URL the resource was requested from.
	URL string `json:"url"`

	// LocalPath is the path relative to the document directory, e.g. "image/img001.png".
	LocalPath string `json:"local_path"`

	// ContentType is the Content-Type header of the fetched payload.
	// Empty for placeholders.
	ContentType string `json:"content_type,omitempty"`

	// Size is the number of bytes written to disk.
	Size int `json:"size"`

	// Placeholder is true when the fetch failed and the transparent PNG was written instead.
	Placeholder bool `json:"placeholder"`

	// FailureReason explains why the placeholder was used.
	FailureReason string `json:"failure_reason,omitempty"`

	// Digest is the hex SHA3-256 of the written bytes.
	Digest string `json:"digest,omitempty"`

	// HasEXIF is true when the fetched image carries an EXIF block.
	HasEXIF bool `json:"has_exif,omitempty"`

	// HasGPS is true when the EXIF block contains GPS coordinates.
	HasGPS bool `json:"has_gps,omitempty"`
}

// ComputeDigest sets Digest to the SHA3-256 of data.
// Empty data leaves Digest empty.
func (r *Resource) ComputeDigest(data []byte) {
	if len(data) == 0 {
		r.Digest = ""
		return
	}
	sum := sha3.Sum256(data)
	r.Digest = hex.EncodeToString(sum[:])
}
