// Package model defines the data structures for taskprefs' configuration,
// preference record, and task entries.
package model

const (
	CurrentSchemaVersion = 1
	FileTypePreferences  = "preferences"
)

// PreferenceRecord is the single durable record owned by the store.
// Mutation happens only through whole-record replacement.
type PreferenceRecord struct {
	SchemaVersion int       `yaml:"schema_version"`
	FileType      string    `yaml:"file_type"`
	ShowCompleted bool      `yaml:"show_completed"`
	SortOrder     SortOrder `yaml:"sort_order"`
	Counter       int       `yaml:"counter"`
	UpdatedAt     string    `yaml:"updated_at,omitempty"`
}

// DefaultPreferenceRecord returns the record used when no persisted bytes
// exist, or when a read degrades after a storage fault.
func DefaultPreferenceRecord() PreferenceRecord {
	return PreferenceRecord{
		SchemaVersion: CurrentSchemaVersion,
		FileType:      FileTypePreferences,
		ShowCompleted: false,
		SortOrder:     SortOrderUnspecified,
		Counter:       0,
	}
}
