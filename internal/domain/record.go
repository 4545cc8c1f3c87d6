package domain

import "time"

// Record is a normalized local record produced by the field mapper.
// Fields holds one entry per target column of the kind's table — every
// column is always present, possibly nil — so the upsert sink can treat
// all mapped records uniformly.
type Record struct {
	Kind EntityKind
	// Key is the vendor natural key value (also present in Fields under
	// the kind's natural-key column).
	Key string
	// ModifiedAt is the vendor's last-modified timestamp, nil when the
	// vendor record carries none. Records without a modified time are
	// always resynced in incremental mode.
	ModifiedAt *time.Time
	Fields     map[string]any
}

// Field returns the named column value, nil if absent or explicitly null.
func (r Record) Field(name string) any {
	return r.Fields[name]
}
