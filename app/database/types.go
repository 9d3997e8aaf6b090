package database

import (
	"slices"
)

type Backend string

const (
	BackendFile   Backend = "file"
	BackendSQLite Backend = "sqlite"
	BackendRedis  Backend = "redis"
)

// SeenSet holds the keys of every item that has already been published.
type SeenSet map[string]struct{}

func NewSeenSet(keys ...string) SeenSet {
	s := make(SeenSet, len(keys))
	for _, key := range keys {
		s.MarkSeen(key)
	}
	return s
}

func (s SeenSet) Contains(key string) bool {
	_, ok := s[key]
	return ok
}

func (s SeenSet) MarkSeen(key string) {
	if key != "" {
		s[key] = struct{}{}
	}
}

func (s SeenSet) Len() int {
	return len(s)
}

// Keys returns the keys in sorted order.
func (s SeenSet) Keys() []string {
	keys := make([]string, 0, len(s))
	for key := range s {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}
