package fs

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fwojciec/docsync"
)

// AuditRecord is the persisted trace of one applied patch: one JSON file
// per patch under the workspace audit directory.
type AuditRecord struct {
	PatchID  string              `json:"patch_id"`
	Action   docsync.PatchAction `json:"action"`
	FilePath string              `json:"file_path"`
	Applied  bool                `json:"applied"`
	Metadata AuditMetadata       `json:"metadata"`
}

// AuditMetadata is the subset of patch metadata kept in the audit trail.
type AuditMetadata struct {
	Timestamp  time.Time `json:"timestamp"`
	Author     string    `json:"author,omitempty"`
	Confidence float64   `json:"confidence,omitempty"`
}

// AuditStore persists audit records in a directory.
type AuditStore struct {
	dir string
}

// NewAuditStore creates a store rooted at dir. The directory is created
// lazily on first append.
func NewAuditStore(dir string) *AuditStore {
	return &AuditStore{dir: dir}
}

// Append writes the audit record for a patch.
func (s *AuditStore) Append(p *docsync.Patch) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}

	record := AuditRecord{
		PatchID:  p.ID,
		Action:   p.Action,
		FilePath: p.FilePath,
		Applied:  p.Applied,
		Metadata: AuditMetadata{
			Timestamp:  p.Metadata.Timestamp,
			Author:     p.Metadata.Author,
			Confidence: p.Metadata.Confidence,
		},
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(s.path(p.ID), data, 0o644)
}

// Load reads the audit record for a patch id.
func (s *AuditStore) Load(patchID string) (*AuditRecord, error) {
	data, err := os.ReadFile(s.path(patchID))
	if err != nil {
		return nil, err
	}

	var record AuditRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, err
	}

	return &record, nil
}

// List returns all audit records, ordered by patch id.
func (s *AuditStore) List() ([]AuditRecord, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var ids []string
	for _, entry := range entries {
		if name := entry.Name(); filepath.Ext(name) == ".json" {
			ids = append(ids, name[:len(name)-len(".json")])
		}
	}
	sort.Strings(ids)

	records := make([]AuditRecord, 0, len(ids))
	for _, id := range ids {
		record, err := s.Load(id)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}

	return records, nil
}

func (s *AuditStore) path(patchID string) string {
	return filepath.Join(s.dir, patchID+".json")
}
