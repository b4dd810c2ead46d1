package stores

import (
	"context"

	"github.com/oarkflow/squealx"
)

// SQLMembershipStore persists user -> group/role membership in SQL.
type SQLMembershipStore struct {
	db *squealx.DB
}

func NewSQLMembershipStore(db *squealx.DB) *SQLMembershipStore {
	return &SQLMembershipStore{db: db}
}

func (s *SQLMembershipStore) AssignGroup(ctx context.Context, userID, groupID string) error {
	q := `INSERT OR IGNORE INTO group_memberships(user_id, group_id) VALUES(:user_id, :group_id)`
	_, err := s.db.NamedExecContext(ctx, q, map[string]any{"user_id": userID, "group_id": groupID})
	return err
}

func (s *SQLMembershipStore) AssignRole(ctx context.Context, userID, roleID string) error {
	q := `INSERT OR IGNORE INTO role_memberships(user_id, role_id) VALUES(:user_id, :role_id)`
	_, err := s.db.NamedExecContext(ctx, q, map[string]any{"user_id": userID, "role_id": roleID})
	return err
}

func (s *SQLMembershipStore) RemoveGroup(ctx context.Context, userID, groupID string) error {
	q := `DELETE FROM group_memberships WHERE user_id = :user_id AND group_id = :group_id`
	_, err := s.db.NamedExecContext(ctx, q, map[string]any{"user_id": userID, "group_id": groupID})
	return err
}

func (s *SQLMembershipStore) RemoveRole(ctx context.Context, userID, roleID string) error {
	q := `DELETE FROM role_memberships WHERE user_id = :user_id AND role_id = :role_id`
	_, err := s.db.NamedExecContext(ctx, q, map[string]any{"user_id": userID, "role_id": roleID})
	return err
}

func (s *SQLMembershipStore) ListGroups(ctx context.Context, userID string) ([]string, error) {
	return s.listMembers(ctx, `SELECT group_id FROM group_memberships WHERE user_id = :user_id ORDER BY group_id`, userID)
}

func (s *SQLMembershipStore) ListRoles(ctx context.Context, userID string) ([]string, error) {
	return s.listMembers(ctx, `SELECT role_id FROM role_memberships WHERE user_id = :user_id ORDER BY role_id`, userID)
}

func (s *SQLMembershipStore) listMembers(ctx context.Context, q, userID string) ([]string, error) {
	r, err := s.db.NamedQueryContext(ctx, q, map[string]any{"user_id": userID})
	if err != nil {
		return nil, err
	}
	defer r.Close()
	out := make([]string, 0)
	for r.Next() {
		var id string
		if err := r.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}
