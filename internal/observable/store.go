// Package observable wraps a nested structure of string-keyed maps and slices so
// that reads descend through live wrappers and every write, at any depth, emits a
// change notification from the owning component.
//
// Each write carries the store name, the written key, the dotted path of the
// container that was written (rooted at "data") and the new value. Consumers use
// the path to react only to the region of state they render, without diffing
// whole trees.
//
// A Store follows a single-writer discipline: one logical owner mutates it. The
// internal mutex only protects the path tracker and the in-place mutation;
// notifications are emitted outside of it so handlers may read and write back.
package observable

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// RootPath is the path of the store's root container.
const RootPath = "data"

var (
	// ErrNoEmitter is returned when a store is created without an owner able to emit.
	ErrNoEmitter = errors.New("owner must be able to emit notifications")
	// ErrNotContainer is returned when the wrapped data is not a map or a slice.
	ErrNotContainer = errors.New("data must be a string-keyed map or a slice")
	// ErrNotFound is returned by path lookups that do not resolve.
	ErrNotFound = errors.New("path not found")
)

// Notification describes one state mutation.
type Notification struct {
	ID            string    `json:"id"`
	Store         string    `json:"store"`
	Property      string    `json:"property"`
	Path          string    `json:"path"`
	NewValue      any       `json:"new_value"`
	PreviousState any       `json:"previous_state,omitempty"`
	NewState      any       `json:"new_state,omitempty"`
	At            time.Time `json:"at"`
}

// FullPath returns the path of the written field itself.
func (n Notification) FullPath() string {
	return n.Path + "." + n.Property
}

// Emitter is the event surface of the component owning a store.
type Emitter interface {
	Emit(Notification)
}

// Option configures a Store.
type Option func(*Store)

// WithStateCopy attaches deep copies of the full state before and after each
// write to its notification. Expensive; off by default.
func WithStateCopy() Option {
	return func(s *Store) {
		s.provideStateCopy = true
	}
}

// Store is an observable wrapper around a nested map/slice structure.
type Store struct {
	owner            Emitter
	name             string
	data             reflect.Value
	provideStateCopy bool

	mu           sync.Mutex
	propertyPath string
}

// New wraps data for the given owner.
func New(owner Emitter, name string, data any, opts ...Option) (*Store, error) {
	if owner == nil || isNilEmitter(owner) {
		return nil, ErrNoEmitter
	}

	rv := reflect.ValueOf(data)
	if !isContainer(rv) {
		return nil, fmt.Errorf("invalid data for store %q: %w", name, ErrNotContainer)
	}

	s := &Store{
		owner:        owner,
		name:         name,
		data:         rv,
		propertyPath: RootPath,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Name returns the store name carried by its notifications.
func (s *Store) Name() string {
	return s.name
}

// Path returns the dotted path of the most recently accessed nested container.
func (s *Store) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.propertyPath
}

// Data returns the root wrapper.
func (s *Store) Data() *Node {
	return &Node{store: s, value: s.data, path: RootPath}
}

// Get resolves a dotted path relative to the root, e.g. "seizureData.output.3".
func (s *Store) Get(path string) (any, error) {
	var current any = s.Data()
	for _, key := range splitPath(path) {
		node, ok := current.(*Node)
		if !ok {
			return nil, fmt.Errorf("%s: %q is not a container: %w", s.name, key, ErrNotFound)
		}
		if !node.Has(key) {
			return nil, fmt.Errorf("%s: %s.%s: %w", s.name, node.path, key, ErrNotFound)
		}
		current = node.Get(key)
	}
	return current, nil
}

// Set writes value at a dotted path relative to the root. The write goes
// through the same notification path as Node.Set.
func (s *Store) Set(path string, value any) (bool, error) {
	keys := splitPath(path)
	if len(keys) == 0 {
		return false, fmt.Errorf("%s: empty path: %w", s.name, ErrNotFound)
	}

	parent := s.Data()
	for _, key := range keys[:len(keys)-1] {
		next, ok := parent.Get(key).(*Node)
		if !ok {
			return false, fmt.Errorf("%s: %s.%s is not a container: %w", s.name, parent.path, key, ErrNotFound)
		}
		parent = next
	}
	return parent.Set(keys[len(keys)-1], value), nil
}

// write performs one in-place mutation and emits its notification.
func (s *Store) write(n *Node, key string, value any) bool {
	s.mu.Lock()

	var previous any
	if s.provideStateCopy {
		previous = DeepCopy(s.data.Interface())
	}

	stored, ok := assign(n.value, key, value)
	if !ok {
		s.mu.Unlock()
		return false
	}

	var current any
	if s.provideStateCopy {
		current = DeepCopy(s.data.Interface())
	}
	s.mu.Unlock()

	notification := Notification{
		ID:            uuid.New().String(),
		Store:         s.name,
		Property:      key,
		Path:          n.path,
		NewValue:      stored.Interface(),
		PreviousState: previous,
		NewState:      current,
		At:            time.Now(),
	}
	s.owner.Emit(notification)

	s.track(RootPath)
	return true
}

func (s *Store) track(path string) {
	s.mu.Lock()
	s.propertyPath = path
	s.mu.Unlock()
}

func splitPath(path string) []string {
	path = strings.TrimPrefix(strings.TrimPrefix(path, RootPath), ".")
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}

func isNilEmitter(e Emitter) bool {
	rv := reflect.ValueOf(e)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Func, reflect.Chan, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// sliceIndex parses a slice key; ok is false for non-numeric or negative keys.
func sliceIndex(key string) (int, bool) {
	i, err := strconv.Atoi(key)
	if err != nil || i < 0 {
		return 0, false
	}
	return i, true
}
