package store

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/santiagomed/pagegen/fs"
)

// FileStore keeps one <id>.json file per template in a directory.
type FileStore struct {
	mu  sync.Mutex
	fs  *fs.FileSystem
	dir string
}

func NewFileStore(fsys *fs.FileSystem, dir string) *FileStore {
	return &FileStore{fs: fsys, dir: dir}
}

func (s *FileStore) path(id int64) string {
	return path.Join(s.dir, strconv.FormatInt(id, 10)+".json")
}

func (s *FileStore) read(id int64) (*Template, error) {
	if !s.fs.Exists(s.path(id)) {
		return nil, templateNotFound()
	}
	data, err := s.fs.ReadFile(s.path(id))
	if err != nil {
		return nil, err
	}
	var t Template
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("template %d: %w", id, err)
	}
	t.ID = id
	return &t, nil
}

func (s *FileStore) GetTemplate(ctx context.Context, id int64) (*Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.read(id)
	if err != nil {
		return nil, err
	}
	if t.Status != StatusActive {
		return nil, templateNotFound()
	}
	return t, nil
}

func (s *FileStore) ids() ([]int64, error) {
	names, err := s.fs.List(s.dir, ".json")
	if err != nil {
		return nil, err
	}
	var ids []int64
	for _, name := range names {
		id, err := strconv.ParseInt(strings.TrimSuffix(name, ".json"), 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *FileStore) ListTemplates(ctx context.Context, pageType string) ([]*Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids, err := s.ids()
	if err != nil {
		return nil, err
	}
	var out []*Template
	for _, id := range ids {
		t, err := s.read(id)
		if err != nil {
			return nil, err
		}
		if t.Status == StatusActive && (pageType == "" || t.Type == pageType) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *FileStore) SaveTemplate(ctx context.Context, t *Template) (int64, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.ID == 0 {
		ids, err := s.ids()
		if err != nil {
			return 0, err
		}
		t.ID = 1
		if len(ids) > 0 {
			t.ID = ids[len(ids)-1] + 1
		}
	}
	if t.Status == "" {
		t.Status = StatusActive
	}
	if err := s.fs.WriteJSON(s.path(t.ID), t); err != nil {
		return 0, err
	}
	return t.ID, nil
}

func (s *FileStore) DeleteTemplate(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.read(id)
	if err != nil {
		return err
	}
	t.Status = StatusDeleted
	return s.fs.WriteJSON(s.path(id), t)
}
