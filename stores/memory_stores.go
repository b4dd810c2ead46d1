package stores

import (
	"context"
	"sort"
	"sync"
)

// MemoryMembershipStore keeps user -> group/role membership in memory.
// Listings are returned sorted so resolution output is deterministic.
type MemoryMembershipStore struct {
	mu     sync.RWMutex
	groups map[string]map[string]bool
	roles  map[string]map[string]bool
}

func NewMemoryMembershipStore() *MemoryMembershipStore {
	return &MemoryMembershipStore{
		groups: make(map[string]map[string]bool),
		roles:  make(map[string]map[string]bool),
	}
}

func (s *MemoryMembershipStore) AssignGroup(ctx context.Context, userID, groupID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.groups[userID] == nil {
		s.groups[userID] = make(map[string]bool)
	}
	s.groups[userID][groupID] = true
	return nil
}

func (s *MemoryMembershipStore) AssignRole(ctx context.Context, userID, roleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.roles[userID] == nil {
		s.roles[userID] = make(map[string]bool)
	}
	s.roles[userID][roleID] = true
	return nil
}

func (s *MemoryMembershipStore) RemoveGroup(ctx context.Context, userID, groupID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.groups[userID], groupID)
	return nil
}

func (s *MemoryMembershipStore) RemoveRole(ctx context.Context, userID, roleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.roles[userID], roleID)
	return nil
}

func (s *MemoryMembershipStore) ListGroups(ctx context.Context, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedMembers(s.groups[userID]), nil
}

func (s *MemoryMembershipStore) ListRoles(ctx context.Context, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedMembers(s.roles[userID]), nil
}

func sortedMembers(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
