package store

import (
	"errors"
	"sync"
)

// ErrRuleNotFound is returned when no rule matches the requested id
var ErrRuleNotFound = errors.New("rule not found")

// RuleStore is the source of truth for the shared rule list. State is
// volatile: it lives for the process lifetime only.
type RuleStore interface {
	// Upsert inserts rule, or replaces the rule with the same id at its
	// current position. It reports whether the operation was an insert.
	Upsert(rule Rule) bool
	// Remove deletes the rule with the given id and returns it. A missing
	// id is a no-op, not an error.
	Remove(id string) (Rule, bool)
	// Snapshot returns the full ordered rule list as a copy. Never nil.
	Snapshot() []Rule
	Get(id string) (Rule, error)
	Len() int
}

// MemoryRuleStore keeps rules in insertion order. Upserting an existing id
// replaces the record in place rather than moving it to the end.
type MemoryRuleStore struct {
	mutex sync.RWMutex
	rules []Rule
	index map[string]int
}

// NewMemoryRuleStore creates an empty in-memory rule store
func NewMemoryRuleStore() *MemoryRuleStore {
	return &MemoryRuleStore{
		rules: []Rule{},
		index: make(map[string]int),
	}
}

func (s *MemoryRuleStore) Upsert(rule Rule) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if i, ok := s.index[rule.ID]; ok {
		s.rules[i] = rule
		return false
	}

	s.index[rule.ID] = len(s.rules)
	s.rules = append(s.rules, rule)
	return true
}

func (s *MemoryRuleStore) Remove(id string) (Rule, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	i, ok := s.index[id]
	if !ok {
		return Rule{}, false
	}

	removed := s.rules[i]
	s.rules = append(s.rules[:i], s.rules[i+1:]...)
	delete(s.index, id)

	// Reindex everything that shifted left
	for j := i; j < len(s.rules); j++ {
		s.index[s.rules[j].ID] = j
	}

	return removed, true
}

func (s *MemoryRuleStore) Snapshot() []Rule {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	snapshot := make([]Rule, len(s.rules))
	copy(snapshot, s.rules)
	return snapshot
}

func (s *MemoryRuleStore) Get(id string) (Rule, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	i, ok := s.index[id]
	if !ok {
		return Rule{}, ErrRuleNotFound
	}
	return s.rules[i], nil
}

func (s *MemoryRuleStore) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.rules)
}

// Compile-time check to ensure MemoryRuleStore implements the RuleStore interface
var _ RuleStore = (*MemoryRuleStore)(nil)
