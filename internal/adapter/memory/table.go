// Package memory provides in-process implementations of the domain ports.
// They honor the same version and uniqueness rules as the SQLite adapter and
// back both the unit tests and the "memory" storage driver.
package memory

import (
	"sync"

	"github.com/neomorfeo/rentwise/internal/domain"
)

// table is a versioned, insertion-ordered map of entities.
type table[T any] struct {
	entity  string
	key     func(T) string
	version func(T) int64
	bump    func(T) T

	mu    sync.RWMutex
	rows  map[string]T
	order []string
}

func newTable[T any](entity string, key func(T) string, version func(T) int64, bump func(T) T) *table[T] {
	return &table[T]{
		entity:  entity,
		key:     key,
		version: version,
		bump:    bump,
		rows:    make(map[string]T),
	}
}

// insert stores v unless its id exists or unique reports a conflict
// with a stored row.
func (t *table[T]) insert(v T, unique func(existing T) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := t.key(v)
	if _, ok := t.rows[id]; ok {
		return &domain.ConflictError{Entity: t.entity, Reason: "id " + id + " already exists"}
	}
	if unique != nil {
		for _, existing := range t.rows {
			if err := unique(existing); err != nil {
				return err
			}
		}
	}
	t.rows[id] = v
	t.order = append(t.order, id)
	return nil
}

func (t *table[T]) get(id string) (T, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	v, ok := t.rows[id]
	if !ok {
		var zero T
		return zero, &domain.NotFoundError{Entity: t.entity, ID: id}
	}
	return v, nil
}

// find returns the first row, in insertion order, that matches.
func (t *table[T]) find(match func(T) bool) (T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, id := range t.order {
		if v := t.rows[id]; match(v) {
			return v, true
		}
	}
	var zero T
	return zero, false
}

func (t *table[T]) filter(match func(T) bool) []T {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]T, 0)
	for _, id := range t.order {
		if v := t.rows[id]; match == nil || match(v) {
			out = append(out, v)
		}
	}
	return out
}

// update replaces the stored row when versions match and bumps the version.
func (t *table[T]) update(v T) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := t.key(v)
	stored, ok := t.rows[id]
	if !ok {
		return &domain.NotFoundError{Entity: t.entity, ID: id}
	}
	if t.version(stored) != t.version(v) {
		return &domain.StaleVersionError{Entity: t.entity, ID: id, Version: t.version(v)}
	}
	t.rows[id] = t.bump(v)
	return nil
}

// page applies limit/offset to an already filtered slice.
func page[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return []T{}
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
