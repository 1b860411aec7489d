package dump

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mahmodDAHOL/remote-fingerprint-erpnext/internal/domain/punch"
)

const fileSuffix = "_last_fetch_dump.json"

// FileName returns the canonical dump file name for a device:
// {device_id}_{ip_with_dots_as_underscores}_last_fetch_dump.json
func FileName(deviceID, deviceIP string) string {
	return deviceID + "_" + strings.ReplaceAll(deviceIP, ".", "_") + fileSuffix
}

// Store reads and writes device dump files in a single directory. Each
// device gets one file per fetch cycle; a rewrite replaces the previous
// dump, so re-reading the same dump is an at-least-once delivery, not a
// duplicate source.
type Store struct {
	dir string
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create dump directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(deviceID, deviceIP string) (string, error) {
	full := filepath.Join(s.dir, filepath.Clean(FileName(deviceID, deviceIP)))
	if !strings.HasPrefix(full, s.dir) {
		return "", fmt.Errorf("invalid dump path for device %s", deviceID)
	}
	return full, nil
}

// Write persists rows as the device's current dump and returns the path.
func (s *Store) Write(deviceID, deviceIP string, rows []punch.RawRow) (string, error) {
	full, err := s.path(deviceID, deviceIP)
	if err != nil {
		return "", err
	}

	data, err := json.Marshal(rows)
	if err != nil {
		return "", fmt.Errorf("failed to encode dump: %w", err)
	}

	if err := os.WriteFile(full, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write dump file: %w", err)
	}

	return full, nil
}

// Read loads the device's current dump file.
func (s *Store) Read(deviceID, deviceIP string) ([]punch.RawRow, error) {
	full, err := s.path(deviceID, deviceIP)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("dump file not found for device %s: %w", deviceID, err)
		}
		return nil, fmt.Errorf("failed to read dump file: %w", err)
	}

	var rows []punch.RawRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode dump file %s: %w", filepath.Base(full), err)
	}

	return rows, nil
}

// List returns the dump files currently present in the store directory.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list dump directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), fileSuffix) {
			files = append(files, entry.Name())
		}
	}
	return files, nil
}
