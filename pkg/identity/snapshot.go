package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// SnapshotSource serves a previously exported directory snapshot. It backs
// offline planning and tests that must not reach a live directory. Filters
// are ignored: the snapshot was already filtered at export time.
type SnapshotSource struct {
	snap Snapshot
}

// NewSnapshotSource wraps an in-memory snapshot.
func NewSnapshotSource(snap Snapshot) *SnapshotSource {
	return &SnapshotSource{snap: snap}
}

// LoadSnapshot reads a snapshot file written by WriteSnapshot.
func LoadSnapshot(path string) (*SnapshotSource, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	return NewSnapshotSource(snap), nil
}

// ListUsers implements Source.
func (s *SnapshotSource) ListUsers(_ context.Context, _ string, max int) ([]User, error) {
	return boundCopy(s.snap.Users, max), nil
}

// ListGroups implements Source.
func (s *SnapshotSource) ListGroups(_ context.Context, _ string, max int) ([]Group, error) {
	return boundCopy(s.snap.Groups, max), nil
}

// ListGroupMembers implements Source.
func (s *SnapshotSource) ListGroupMembers(_ context.Context, groupID string) ([]string, error) {
	return append([]string(nil), s.snap.Memberships[groupID]...), nil
}

// ManagerEmail implements Source.
func (s *SnapshotSource) ManagerEmail(_ context.Context, userID string) (string, error) {
	return s.snap.Managers[userID], nil
}

// Export captures a bounded snapshot from any source.
func Export(ctx context.Context, src Source, userFilter, groupFilter string, maxUsers, maxGroups int) (*Snapshot, error) {
	users, err := src.ListUsers(ctx, userFilter, maxUsers)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	groups, err := src.ListGroups(ctx, groupFilter, maxGroups)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	memberships := make(map[string][]string, len(groups))
	for _, group := range groups {
		members, err := src.ListGroupMembers(ctx, group.ID)
		if err != nil {
			return nil, fmt.Errorf("list members of %s: %w", group.Email, err)
		}
		memberships[group.ID] = members
	}
	return &Snapshot{Users: users, Groups: groups, Memberships: memberships}, nil
}

// WriteSnapshot serializes a snapshot to disk as indented JSON.
func WriteSnapshot(path string, snap *Snapshot) error {
	raw, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, append(raw, '\n'), 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

func boundCopy[T any](items []T, max int) []T {
	if max > 0 && len(items) > max {
		items = items[:max]
	}
	return append([]T(nil), items...)
}
