package store

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"

	"todoflow/internal/models"
)

// Store persists the full todo list as a single JSON array file,
// rewritten wholesale on every mutation. A mutex serializes the
// read-modify-write cycles of overlapping requests within this process;
// concurrent writers from other processes remain last-writer-wins.
type Store struct {
	path string
	mu   sync.Mutex
}

// New creates a store backed by the JSON file at path.
// The file is created lazily on the first Save.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file path
func (s *Store) Path() string {
	return s.path
}

// Load reads the full todo list from disk.
// A missing or unparseable file yields an empty list, never an error.
func (s *Store) Load() []models.Todo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) load() []models.Todo {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("⚠️  [STORE] Failed to read %s, treating as empty: %v", s.path, err)
		}
		return []models.Todo{}
	}

	var todos []models.Todo
	if err := json.Unmarshal(data, &todos); err != nil {
		log.Printf("⚠️  [STORE] Failed to parse %s, treating as empty: %v", s.path, err)
		return []models.Todo{}
	}
	if todos == nil {
		todos = []models.Todo{}
	}
	return todos
}

// Save overwrites the file with the full serialized list.
func (s *Store) Save(todos []models.Todo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(todos)
}

func (s *Store) save(todos []models.Todo) error {
	if todos == nil {
		todos = []models.Todo{}
	}
	data, err := json.MarshalIndent(todos, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize todos: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", s.path, err)
	}
	return nil
}

// Mutate runs fn against the current list under the store lock and persists
// the returned list when fn reports a change. Tools use this so their
// load → mutate → save cycle is atomic with respect to other in-process
// mutations; a not-found lookup returns changed=false and leaves the file
// untouched.
func (s *Store) Mutate(fn func(todos []models.Todo) (result []models.Todo, changed bool)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	todos, changed := fn(s.load())
	if !changed {
		return nil
	}
	return s.save(todos)
}

// NextID returns 1 for an empty list, otherwise max(id)+1.
// Deleting the highest-id item frees its id for reuse; callers accept that.
func NextID(todos []models.Todo) int {
	maxID := 0
	for _, t := range todos {
		if t.ID > maxID {
			maxID = t.ID
		}
	}
	return maxID + 1
}
