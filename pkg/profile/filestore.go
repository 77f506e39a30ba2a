package profile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

const fileFormatVersion = 1

type fileDocument struct {
	Version  int                `json:"version"`
	Profiles map[string]Profile `json:"profiles"`
}

// FileStore keeps every profile in one JSON document. Writes go through a
// temp file and rename so a crash never leaves a truncated file.
type FileStore struct {
	path   string
	logger *zap.Logger
	mu     sync.Mutex
}

// NewFileStore returns a store backed by path. The file is created on first save.
func NewFileStore(path string, logger *zap.Logger) *FileStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileStore{path: path, logger: logger.With(zap.String("store", path))}
}

func (s *FileStore) read() (fileDocument, error) {
	doc := fileDocument{Version: fileFormatVersion, Profiles: map[string]Profile{}}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return doc, fmt.Errorf("reading profiles: %w", err)
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("decoding profiles %s: %w", s.path, err)
	}
	if doc.Profiles == nil {
		doc.Profiles = map[string]Profile{}
	}
	return doc, nil
}

func (s *FileStore) write(doc fileDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding profiles: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating profile directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".profiles-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing profiles: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing profiles: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replacing profiles: %w", err)
	}
	return nil
}

func (s *FileStore) Save(p Profile) error {
	p, err := normalize(p)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.read()
	if err != nil {
		return err
	}
	doc.Profiles[p.Name] = p
	if err := s.write(doc); err != nil {
		return err
	}
	s.logger.Debug("Saved profile", zap.String("name", p.Name), zap.Int("paths", len(p.Paths)))
	return nil
}

func (s *FileStore) Load(name string) (Profile, error) {
	name, err := normalizeName(name)
	if err != nil {
		return Profile{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.read()
	if err != nil {
		return Profile{}, err
	}
	p, ok := doc.Profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return p, nil
}

func (s *FileStore) Delete(name string) error {
	name, err := normalizeName(name)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := doc.Profiles[name]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	delete(doc.Profiles, name)
	return s.write(doc)
}

func (s *FileStore) Rename(oldName, newName string) error {
	oldName, err := normalizeName(oldName)
	if err != nil {
		return err
	}
	newName, err = normalizeName(newName)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.read()
	if err != nil {
		return err
	}
	p, ok := doc.Profiles[oldName]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, oldName)
	}
	if oldName == newName {
		return nil
	}
	if _, taken := doc.Profiles[newName]; taken {
		return fmt.Errorf("%w: %s", ErrExists, newName)
	}
	delete(doc.Profiles, oldName)
	p.Name = newName
	doc.Profiles[newName] = p
	return s.write(doc)
}

// List returns every profile sorted by name.
func (s *FileStore) List() ([]Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	out := make([]Profile, 0, len(doc.Profiles))
	for _, p := range doc.Profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *FileStore) Close() error { return nil }
