package catalog

import "errors"

var (
	ErrGenreNotFound   = errors.New("genre not found")
	ErrSessionNotFound = errors.New("session not found")
)

// Store exposes catalog retrieval for HTTP handlers.
type Store interface {
	Genres() []string
	Has(genre string) bool
	List(genre string) ([]Session, error)
	Find(genre, id string) (Session, error)
}

// MemoryStore implements Store over a table built once at startup. It is never
// written after construction, so concurrent readers need no locking.
type MemoryStore struct {
	genres  []string
	shelves map[string][]Session
}

// NewMemoryStore returns a MemoryStore holding private copies of the supplied shelves.
// A genre listed twice keeps its first occurrence.
func NewMemoryStore(shelves []Shelf) *MemoryStore {
	s := &MemoryStore{
		genres:  make([]string, 0, len(shelves)),
		shelves: make(map[string][]Session, len(shelves)),
	}
	for _, shelf := range shelves {
		if _, ok := s.shelves[shelf.Genre]; ok {
			continue
		}
		s.genres = append(s.genres, shelf.Genre)
		s.shelves[shelf.Genre] = append([]Session{}, shelf.Sessions...)
	}
	return s
}

// Genres returns the known genres in declaration order.
func (s *MemoryStore) Genres() []string {
	return append([]string(nil), s.genres...)
}

// Has reports whether genre is part of the catalog.
func (s *MemoryStore) Has(genre string) bool {
	_, ok := s.shelves[genre]
	return ok
}

// List returns the sessions of a genre. Known genres without records yield an
// empty slice; unknown genres yield ErrGenreNotFound.
func (s *MemoryStore) List(genre string) ([]Session, error) {
	sessions, ok := s.shelves[genre]
	if !ok {
		return nil, ErrGenreNotFound
	}
	return append([]Session{}, sessions...), nil
}

// Find looks up a session by identifier within a genre.
func (s *MemoryStore) Find(genre, id string) (Session, error) {
	sessions, ok := s.shelves[genre]
	if !ok {
		return Session{}, ErrGenreNotFound
	}
	for _, item := range sessions {
		if item.ID == id {
			return item, nil
		}
	}
	return Session{}, ErrSessionNotFound
}
