package scaffold

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/NielsdaWheelz/tin/internal/errors"
	"github.com/NielsdaWheelz/tin/internal/fs"
)

// ManifestFile is the package metadata file every template must carry.
const ManifestFile = "package.json"

type object = orderedmap.OrderedMap[string, json.RawMessage]

func newObject() *object {
	return orderedmap.New[string, json.RawMessage]()
}

// encodeObject writes o as compact JSON in key order. Values are emitted as
// stored, so characters such as '>' and '<' in version ranges stay literal.
func encodeObject(o *object) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for pair := o.Oldest(); pair != nil; pair = pair.Next() {
		if pair != o.Oldest() {
			buf.WriteByte(',')
		}
		key, err := encodeValue(pair.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(pair.Value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// encodeValue is json.Marshal without HTML escaping.
func encodeValue(v any) (json.RawMessage, error) {
	data, err := fs.MarshalJSON(v)
	if err != nil {
		return nil, err
	}
	return bytes.TrimSpace(data), nil
}

// Manifest is a package.json document whose top-level and section key order
// survive a load/save round trip.
type Manifest struct {
	path string
	doc  *object
}

// LoadManifest reads and parses dir/package.json.
func LoadManifest(fsys fs.FS, dir string) (*Manifest, error) {
	path := filepath.Join(dir, ManifestFile)
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.EManifestInvalid, "failed to read "+ManifestFile, err)
	}
	doc := newObject()
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, errors.WrapWithDetails(errors.EManifestInvalid, ManifestFile+" is not a JSON object", err,
			map[string]string{"path": path})
	}
	return &Manifest{path: path, doc: doc}, nil
}

// SetName sets the name field, keeping its position when it already exists.
func (m *Manifest) SetName(name string) error {
	raw, err := encodeValue(name)
	if err != nil {
		return err
	}
	m.doc.Set("name", raw)
	return nil
}

// MergeSection adds entries to the object under key, creating it if needed.
// Existing keys keep their position and value; new keys are appended in the
// order given. It reports whether anything was added.
func (m *Manifest) MergeSection(key string, entries [][2]string) (bool, error) {
	section := newObject()
	if raw, ok := m.doc.Get(key); ok {
		if err := json.Unmarshal(raw, section); err != nil {
			return false, fmt.Errorf("%s.%s: %w", ManifestFile, key, err)
		}
	}

	added := false
	for _, kv := range entries {
		if _, exists := section.Get(kv[0]); exists {
			continue
		}
		v, err := encodeValue(kv[1])
		if err != nil {
			return false, err
		}
		section.Set(kv[0], v)
		added = true
	}
	if !added {
		return false, nil
	}

	raw, err := encodeObject(section)
	if err != nil {
		return false, err
	}
	m.doc.Set(key, raw)
	return true, nil
}

// Save writes the manifest back atomically, two-space indented.
func (m *Manifest) Save(fsys fs.FS) error {
	data, err := encodeObject(m.doc)
	if err == nil {
		err = fs.WriteJSONAtomic(fsys, m.path, json.RawMessage(data), 0o644)
	}
	if err != nil {
		return errors.WrapWithDetails(errors.EWriteFailed, "failed to write "+ManifestFile, err,
			map[string]string{"path": m.path})
	}
	return nil
}

// RewriteManifest sets the name field of dir/package.json to name, leaving
// every other key and the key order unchanged.
func RewriteManifest(fsys fs.FS, dir, name string) error {
	m, err := LoadManifest(fsys, dir)
	if err != nil {
		return err
	}
	if err := m.SetName(name); err != nil {
		return errors.Wrap(errors.EInternal, "failed to encode project name", err)
	}
	return m.Save(fsys)
}
