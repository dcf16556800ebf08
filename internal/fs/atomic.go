package fs

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
)

// tempPattern is the CreateTemp pattern used for atomic writes.
const tempPattern = ".tin-tmp-*"

// WriteFileAtomic writes data to path atomically using a temp file + rename.
// The temp file is created in the same directory as path to ensure atomic rename on POSIX.
// If the operation fails, the original file (if any) is left unchanged.
// The caller must ensure the parent directory exists.
func WriteFileAtomic(fs FS, path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)

	tmpPath, w, err := fs.CreateTemp(dir, tempPattern)
	if err != nil {
		return err
	}

	success := false
	defer func() {
		if !success {
			fs.Remove(tmpPath)
		}
	}()

	if _, err := w.Write(data); err != nil {
		w.Close()
		return err
	}

	if err := w.Close(); err != nil {
		return err
	}

	if err := fs.Chmod(tmpPath, perm); err != nil {
		return err
	}

	if err := fs.Rename(tmpPath, path); err != nil {
		return err
	}

	success = true
	return nil
}

// WriteJSONAtomic marshals v as two-space indented JSON with a trailing newline
// and writes it atomically. HTML characters are not escaped, so semver ranges
// such as ">=18" survive a round trip through package.json.
func WriteJSONAtomic(fs FS, path string, v any, perm os.FileMode) error {
	data, err := MarshalJSON(v)
	if err != nil {
		return err
	}
	return WriteFileAtomic(fs, path, data, perm)
}

// MarshalJSON encodes v the way WriteJSONAtomic writes it.
func MarshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
