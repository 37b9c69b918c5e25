package persistence

import (
	"sort"

	"github.com/Layr-Labs/hww-signer-go/pkg/types"
)

// BackupRecord is one stored seed backup. Ciphertext is an envelope from
// pkg/encryption bound to ID; the seed itself is never stored in clear.
type BackupRecord struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Timestamp  uint32 `json:"timestamp"`
	Ciphertext []byte `json:"ciphertext"`
}

// Info returns the metadata reported to the host.
func (r *BackupRecord) Info() types.BackupInfo {
	return types.BackupInfo{ID: r.ID, Name: r.Name, Timestamp: r.Timestamp}
}

// Clone returns a deep copy.
func (r *BackupRecord) Clone() *BackupRecord {
	if r == nil {
		return nil
	}
	c := *r
	c.Ciphertext = append([]byte(nil), r.Ciphertext...)
	return &c
}

// SortBackups orders records newest first, breaking ties by ID.
func SortBackups(records []*BackupRecord) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].Timestamp != records[j].Timestamp {
			return records[i].Timestamp > records[j].Timestamp
		}
		return records[i].ID < records[j].ID
	})
}
