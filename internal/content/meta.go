package content

import "time"

type Source string

const (
	SourceUnknown Source = "unknown"
	SourceSeed    Source = "seed"
	SourceDir     Source = "dir"
	SourceS3      Source = "s3"
)

type Meta struct {
	Version    string    `json:"version,omitempty"`
	SHA256     string    `json:"sha256,omitempty"`
	Source     Source    `json:"source,omitempty"`
	VerifiedAt time.Time `json:"verified_at,omitempty"`

	// Signed is set when the bundle signature was checked against KeyID.
	Signed bool   `json:"signed,omitempty"`
	KeyID  string `json:"key_id,omitempty"`
}
