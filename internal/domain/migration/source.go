package migration

import (
	"context"
	"math"
)

// SourceRecord is one loosely typed record straight off the provider wire.
// Source payloads vary in which fields are present and how they are typed,
// so every access is explicit and optional; all "may be missing" decisions
// belong to the normalizers.
type SourceRecord map[string]any

// String extracts a non-empty string field.
func (r SourceRecord) String(key string) (string, bool) {
	s, ok := r[key].(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// Int64 extracts an integer field. JSON numbers arrive as float64; values
// with a fractional part are rejected so that decimal major-unit amounts
// fall through to the string path.
func (r SourceRecord) Int64(key string) (int64, bool) {
	switch v := r[key].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int64(v), true
	default:
		return 0, false
	}
}

// Bool extracts a boolean field.
func (r SourceRecord) Bool(key string) bool {
	b, _ := r[key].(bool)
	return b
}

// Records extracts a nested list of records.
func (r SourceRecord) Records(key string) []SourceRecord {
	switch v := r[key].(type) {
	case []SourceRecord:
		return v
	case []any:
		out := make([]SourceRecord, 0, len(v))
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				out = append(out, SourceRecord(m))
			}
		}
		return out
	default:
		return nil
	}
}

// ID returns the record's identifier, or "" when absent.
func (r SourceRecord) ID() string {
	id, _ := r.String("id")
	return id
}

// Page is one page of source records. NextPageToken is empty when the
// provider reports no further pages.
type Page struct {
	Records       []SourceRecord
	NextPageToken string
}

// ParentRecord is a resolved parent entity (e.g., the store that owns a
// product), used for currency and naming resolution.
type ParentRecord struct {
	ID       string
	Name     string
	Currency string
}

// SourceProvider is the capability contract a source commerce platform must
// satisfy. Errors are typed as ProviderError where the provider surfaces a
// classifiable condition.
type SourceProvider interface {
	// Name identifies the platform (used in logs and metadata).
	Name() string
	// ListPage fetches one page of records of the given kind. An empty
	// pageToken requests the first page.
	ListPage(ctx context.Context, kind EntityKind, pageToken string, pageSize int) (*Page, error)
	// GetParent resolves a parent entity by id.
	GetParent(ctx context.Context, parentID string) (*ParentRecord, error)
}
