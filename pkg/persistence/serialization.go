package persistence

import (
	"encoding/json"
	"fmt"
)

// MarshalBackupRecord serializes a BackupRecord to JSON bytes.
func MarshalBackupRecord(record *BackupRecord) ([]byte, error) {
	if record == nil {
		return nil, fmt.Errorf("cannot marshal nil BackupRecord")
	}
	if record.ID == "" {
		return nil, fmt.Errorf("cannot marshal BackupRecord without ID")
	}

	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal BackupRecord to JSON: %w", err)
	}
	return data, nil
}

// UnmarshalBackupRecord deserializes a BackupRecord from JSON bytes.
func UnmarshalBackupRecord(data []byte) (*BackupRecord, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("cannot unmarshal empty data")
	}

	var record BackupRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON to BackupRecord: %w", err)
	}
	return &record, nil
}
