package panel

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"TemplateBoard/internal/state"

	"github.com/goccy/go-json"
	"github.com/guregu/null/v6"
)

var (
	ErrTemplateNotFound = errors.New("template not found")
	ErrTemplateExists   = errors.New("template already exists")
)

// TemplateStore persists template documents by numeric id.
type TemplateStore interface {
	Get(id int64) (state.Document, error)
	Put(id int64, elements []state.Element) (state.Document, error)
}

type record struct {
	NextID     int64           `json:"next_id"`
	Background string          `json:"background"`
	Elements   []state.Element `json:"elements"`
}

// FileStore keeps one JSON file per template under dir.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore creates dir if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(id int64) string {
	return filepath.Join(s.dir, "template-"+strconv.FormatInt(id, 10)+".json")
}

func (s *FileStore) read(id int64) (record, error) {
	data, err := os.ReadFile(s.path(id))
	if errors.Is(err, os.ErrNotExist) {
		return record{}, fmt.Errorf("%w: %d", ErrTemplateNotFound, id)
	}
	if err != nil {
		return record{}, err
	}
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return record{}, fmt.Errorf("corrupt template %d: %w", id, err)
	}
	return rec, nil
}

func (s *FileStore) write(id int64, rec record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path(id) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path(id))
}

func (rec record) document() state.Document {
	elements := rec.Elements
	if elements == nil {
		elements = []state.Element{}
	}
	return state.Document{
		Elements:   elements,
		Background: null.NewString(rec.Background, rec.Background != ""),
	}
}

// Create registers a new empty template with an optional background.
func (s *FileStore) Create(id int64, background string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := os.Stat(s.path(id)); err == nil {
		return fmt.Errorf("%w: %d", ErrTemplateExists, id)
	}
	return s.write(id, record{NextID: 1, Background: background})
}

// Get returns the stored document.
func (s *FileStore) Get(id int64) (state.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := s.read(id)
	if err != nil {
		return state.Document{}, err
	}
	return rec.document(), nil
}

// Put replaces the element list. Elements without an id, or with an id
// this template never issued, get a fresh one.
func (s *FileStore) Put(id int64, elements []state.Element) (state.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := s.read(id)
	if err != nil {
		return state.Document{}, err
	}

	known := make(map[int64]bool, len(rec.Elements))
	for _, el := range rec.Elements {
		known[el.ID.Int64] = true
	}

	used := make(map[int64]bool, len(elements))
	stored := make([]state.Element, 0, len(elements))
	for _, el := range elements {
		if !el.ID.Valid || !known[el.ID.Int64] || used[el.ID.Int64] {
			el.ID = null.IntFrom(rec.NextID)
			rec.NextID++
		}
		used[el.ID.Int64] = true
		stored = append(stored, el)
	}
	rec.Elements = stored

	if err := s.write(id, rec); err != nil {
		return state.Document{}, err
	}
	return rec.document(), nil
}
