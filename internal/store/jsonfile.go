package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/zhenyuanliu98-svg/Vinobook/internal/models"
)

// fileData is the on-disk layout: users keyed by email plus a flat list of
// notes. The whole file is rewritten on every mutation.
type fileData struct {
	Users map[string]*models.User `json:"users"`
	Notes []*models.WineNote      `json:"notes"`
}

// JSONStore keeps the entire dataset in a single JSON file. Every
// operation is a full read-modify-write, so a single mutex serializes all
// access; concurrent request handlers are safe but not parallel.
type JSONStore struct {
	mu   sync.Mutex
	path string
	data fileData
}

// NewJSONStore loads the data file at path, creating an empty dataset if
// the file does not exist yet.
func NewJSONStore(path string) (*JSONStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	s := &JSONStore{
		path: path,
		data: fileData{Users: make(map[string]*models.User)},
	}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read data file: %w", err)
	}
	if err := json.Unmarshal(raw, &s.data); err != nil {
		return nil, fmt.Errorf("parse data file: %w", err)
	}
	if s.data.Users == nil {
		s.data.Users = make(map[string]*models.User)
	}
	return s, nil
}

// Close implements the backend contract; the JSON store holds no handles.
func (s *JSONStore) Close() error { return nil }

// persist rewrites the data file atomically. Callers must hold s.mu.
func (s *JSONStore) persist() error {
	raw, err := json.MarshalIndent(&s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode data file: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write data file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace data file: %w", err)
	}
	return nil
}

// GetOrCreateUser returns the user with the given email, provisioning a
// new account on first login.
func (s *JSONStore) GetOrCreateUser(_ context.Context, email, name string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u, ok := s.data.Users[email]; ok {
		cp := *u
		return &cp, nil
	}

	var maxID int64
	for _, u := range s.data.Users {
		if u.ID > maxID {
			maxID = u.ID
		}
	}
	u := &models.User{
		ID:        maxID + 1,
		Email:     email,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	s.data.Users[email] = u
	if err := s.persist(); err != nil {
		delete(s.data.Users, email)
		return nil, err
	}
	cp := *u
	return &cp, nil
}

// findNote returns the index of the note owned by ownerID, or -1.
// Callers must hold s.mu.
func (s *JSONStore) findNote(ownerID, noteID int64) int {
	for i, n := range s.data.Notes {
		if n.ID == noteID && n.UserID == ownerID {
			return i
		}
	}
	return -1
}

func copyNote(n *models.WineNote) *models.WineNote {
	cp := *n
	cp.Photos = append([]string{}, n.Photos...)
	return &cp
}

// ListNotes returns the owner's notes, newest first. Equal timestamps keep
// insertion order.
func (s *JSONStore) ListNotes(_ context.Context, ownerID int64) ([]models.WineNote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	notes := make([]models.WineNote, 0)
	for _, n := range s.data.Notes {
		if n.UserID == ownerID {
			notes = append(notes, *copyNote(n))
		}
	}
	sort.SliceStable(notes, func(i, j int) bool {
		return notes[i].CreatedAt.After(notes[j].CreatedAt)
	})
	return notes, nil
}

func (s *JSONStore) GetNote(_ context.Context, ownerID, noteID int64) (*models.WineNote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.findNote(ownerID, noteID)
	if i < 0 {
		return nil, ErrNotFound
	}
	return copyNote(s.data.Notes[i]), nil
}

// CreateNote assigns the next id (max existing + 1) and the creation
// timestamp, then persists the whole dataset.
func (s *JSONStore) CreateNote(_ context.Context, ownerID int64, in *models.WineNoteInput) (*models.WineNote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var maxID int64
	for _, n := range s.data.Notes {
		if n.ID > maxID {
			maxID = n.ID
		}
	}

	note := &models.WineNote{
		ID:        maxID + 1,
		UserID:    ownerID,
		Photos:    []string{},
		CreatedAt: time.Now().UTC(),
	}
	in.Apply(note)
	if note.Photos == nil {
		note.Photos = []string{}
	}

	s.data.Notes = append(s.data.Notes, note)
	if err := s.persist(); err != nil {
		s.data.Notes = s.data.Notes[:len(s.data.Notes)-1]
		return nil, err
	}
	return copyNote(note), nil
}

// UpdateNote replaces the mutable fields of an owned note; id, owner and
// created_at always survive from the stored record.
func (s *JSONStore) UpdateNote(_ context.Context, ownerID, noteID int64, in *models.WineNoteInput) (*models.WineNote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.findNote(ownerID, noteID)
	if i < 0 {
		return nil, ErrNotFound
	}

	prev := s.data.Notes[i]
	next := copyNote(prev)
	in.Apply(next)
	if next.Photos == nil {
		next.Photos = []string{}
	}

	s.data.Notes[i] = next
	if err := s.persist(); err != nil {
		s.data.Notes[i] = prev
		return nil, err
	}
	return copyNote(next), nil
}

func (s *JSONStore) DeleteNote(_ context.Context, ownerID, noteID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.findNote(ownerID, noteID)
	if i < 0 {
		return ErrNotFound
	}

	prev := s.data.Notes
	s.data.Notes = append(append([]*models.WineNote{}, prev[:i]...), prev[i+1:]...)
	if err := s.persist(); err != nil {
		s.data.Notes = prev
		return err
	}
	return nil
}

// AddPhoto appends filename to the note's attachment list. The caller has
// already written the file; the record only ever references completed writes.
func (s *JSONStore) AddPhoto(_ context.Context, ownerID, noteID int64, filename string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.findNote(ownerID, noteID)
	if i < 0 {
		return ErrNotFound
	}

	n := s.data.Notes[i]
	n.Photos = append(n.Photos, filename)
	if err := s.persist(); err != nil {
		n.Photos = n.Photos[:len(n.Photos)-1]
		return err
	}
	return nil
}

func (s *JSONStore) RemovePhoto(_ context.Context, ownerID, noteID int64, filename string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.findNote(ownerID, noteID)
	if i < 0 {
		return ErrNotFound
	}

	n := s.data.Notes[i]
	at := -1
	for j, p := range n.Photos {
		if p == filename {
			at = j
			break
		}
	}
	if at < 0 {
		return ErrPhotoNotFound
	}

	prev := n.Photos
	n.Photos = append(append([]string{}, prev[:at]...), prev[at+1:]...)
	if err := s.persist(); err != nil {
		n.Photos = prev
		return err
	}
	return nil
}
