package store

import (
	"encoding/gob"
	"os"
	"path/filepath"
)

// saveRows gob-encodes rows to <dir>/rows.gob atomically (temp file,
// then rename).
func saveRows[T any](dir string, rows map[uint32]T) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(dir, "rows.gob")
	tmp := path + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := gob.NewEncoder(f).Encode(rows); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// loadRows decodes rows written by saveRows. A missing file is not an
// error: it means the table has never been persisted yet.
func loadRows[T any](dir string) (map[uint32]T, error) {
	path := filepath.Join(dir, "rows.gob")
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[uint32]T), nil
		}
		return nil, err
	}
	defer f.Close()

	rows := make(map[uint32]T)
	if err := gob.NewDecoder(f).Decode(&rows); err != nil {
		return nil, err
	}
	return rows, nil
}
