package standard

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// selectionFile is the on-disk shape of a persisted selection.
type selectionFile struct {
	Request
	UpdatedAt time.Time `json:"updated_at"`
}

// LoadSelection reads a persisted selection. It returns nil without error if
// the file does not exist.
func LoadSelection(path string) (*Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var sf selectionFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return nil, err
	}
	return &sf.Request, nil
}

// SaveSelection writes req to path as JSON.
func SaveSelection(path string, req Request) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	data, err := json.MarshalIndent(selectionFile{Request: req, UpdatedAt: time.Now()}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
