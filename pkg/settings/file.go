package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DocumentVersion is the current version of the settings file format.
const DocumentVersion = 1

// document is the on-disk JSON layout of a FileStore.
type document struct {
	// Version is the file format version.
	Version int `json:"version"`

	// SavedAt is when the document was last written.
	SavedAt time.Time `json:"saved_at"`

	// Ints holds integer flags by key.
	Ints map[string]int `json:"ints,omitempty"`

	// Profiles are the known networks, most recent first.
	Profiles []storedProfile `json:"profiles,omitempty"`
}

type storedProfile struct {
	SSID      string    `json:"ssid"`
	Password  string    `json:"password"`
	Sealed    bool      `json:"sealed,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FileStore persists settings to a JSON file.
type FileStore struct {
	mu     sync.Mutex
	path   string
	sealer *Sealer
}

// NewFileStore creates a store backed by the file at path. The file is
// created on first write. sealer may be nil.
func NewFileStore(path string, sealer *Sealer) *FileStore {
	return &FileStore{path: path, sealer: sealer}
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// GetInt returns the integer stored under key.
func (s *FileStore) GetInt(key string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return 0, err
	}
	return doc.Ints[key], nil
}

// SetInt stores an integer under key.
func (s *FileStore) SetInt(key string, value int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	if doc.Ints == nil {
		doc.Ints = make(map[string]int)
	}
	doc.Ints[key] = value
	return s.save(doc)
}

// AddProfile appends or replaces a profile and writes the whole document.
func (s *FileStore) AddProfile(p Profile) error {
	if err := validate(p); err != nil {
		return err
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	profiles, err := s.decode(doc.Profiles)
	if err != nil {
		return err
	}
	doc.Profiles, err = s.encode(promote(profiles, p))
	if err != nil {
		return err
	}
	return s.save(doc)
}

// Profiles returns the stored profiles, most recent first.
func (s *FileStore) Profiles() ([]Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	return s.decode(doc.Profiles)
}

// Clear removes the settings file.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// load reads the document. A missing file is an empty document.
func (s *FileStore) load() (*document, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return &document{Version: DocumentVersion}, nil
	}
	if err != nil {
		return nil, err
	}

	doc := &document{}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return doc, nil
}

// save writes the document to a temporary file in the same directory and
// renames it over the old one.
func (s *FileStore) save(doc *document) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	doc.Version = DocumentVersion
	doc.SavedAt = time.Now()

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0600); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

func (s *FileStore) encode(profiles []Profile) ([]storedProfile, error) {
	out := make([]storedProfile, 0, len(profiles))
	for _, p := range profiles {
		pw, err := s.sealer.Seal(p.Password)
		if err != nil {
			return nil, err
		}
		out = append(out, storedProfile{
			SSID:      p.SSID,
			Password:  pw,
			Sealed:    s.sealer.Enabled(),
			UpdatedAt: p.UpdatedAt,
		})
	}
	return out, nil
}

func (s *FileStore) decode(stored []storedProfile) ([]Profile, error) {
	out := make([]Profile, 0, len(stored))
	for _, sp := range stored {
		pw := sp.Password
		if sp.Sealed {
			if !s.sealer.Enabled() {
				return nil, fmt.Errorf("profile %q: %w: no sealing key configured", sp.SSID, ErrSealedData)
			}
			var err error
			if pw, err = s.sealer.Open(sp.Password); err != nil {
				return nil, fmt.Errorf("profile %q: %w", sp.SSID, err)
			}
		}
		out = append(out, Profile{SSID: sp.SSID, Password: pw, UpdatedAt: sp.UpdatedAt})
	}
	return out, nil
}

// Compile-time interface satisfaction check.
var _ Store = (*FileStore)(nil)
