// Package media defines shared types for the tikdl application.
package media

import "fmt"

// QualityTier is the caller-requested quality preference. It drives both
// the order in which provider adapters are tried and which variant an
// adapter picks when a provider exposes several in one response.
type QualityTier int

const (
	QualityHigh QualityTier = iota
	QualityStandard
)

func (q QualityTier) String() string {
	switch q {
	case QualityHigh:
		return "high"
	case QualityStandard:
		return "standard"
	default:
		return "unknown"
	}
}

// ParseQualityTier parses a tier name. Unknown values are an error so a
// typo in config or flags is caught at startup rather than silently
// downgrading the request.
func ParseQualityTier(s string) (QualityTier, error) {
	switch s {
	case "high", "hd":
		return QualityHigh, nil
	case "standard", "sd":
		return QualityStandard, nil
	default:
		return QualityHigh, fmt.Errorf("unsupported quality %q (valid: high, standard)", s)
	}
}

// ResolvedMedia is the normalized result of a successful resolution.
// Exactly one adapter produces it per request; it is never mutated after
// creation.
type ResolvedMedia struct {
	URL       string // direct, fetchable media URL
	Title     string
	Author    string
	Quality   string // provider-dependent label, e.g. "HD", "Standard", "CDN_Direct"
	Thumbnail string // optional
	Duration  int    // seconds, 0 if unknown
	Source    string // name of the adapter that produced this result
}

// Payload holds the fetched bytes of a resolved media URL.
type Payload struct {
	Data []byte
	Size int64
}

// DownloadRecord is a single entry in the local download log.
type DownloadRecord struct {
	ID       string // canonical video identifier (may be a short-link token)
	Title    string
	Author   string
	Quality  string
	Source   string // adapter that resolved the video
	Size     int64  // downloaded bytes
	SavedAt  int64  // unix timestamp
	FilePath string
}
