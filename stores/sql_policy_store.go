package stores

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/oarkflow/casim"
	"github.com/oarkflow/squealx"
)

// SQLPolicyStore persists policies in SQL (squealx). Condition, grant and
// session specs are stored as JSON columns; every write appends an immutable
// snapshot to policy_history.
type SQLPolicyStore struct {
	db *squealx.DB
}

func NewSQLPolicyStore(db *squealx.DB) *SQLPolicyStore {
	return &SQLPolicyStore{db: db}
}

func (s *SQLPolicyStore) CreatePolicy(ctx context.Context, p *casim.Policy) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}
	args, err := policyArgs(p)
	if err != nil {
		return err
	}
	q := `INSERT INTO policies(id, display_name, state, conditions, grant_json, session_json, version, created_at, updated_at) VALUES(:id, :display_name, :state, :conditions, :grant_json, :session_json, :version, :created_at, :updated_at)`
	if _, err := s.db.NamedExecContext(ctx, q, args); err != nil {
		return err
	}
	return s.insertPolicyHistory(ctx, p)
}

func (s *SQLPolicyStore) UpdatePolicy(ctx context.Context, p *casim.Policy) error {
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now()
	}
	// snapshot the stored state before overwriting, append-only
	if prev, err := s.GetPolicy(ctx, p.ID); err == nil {
		if err := s.insertPolicyHistory(ctx, prev); err != nil {
			return err
		}
	}
	args, err := policyArgs(p)
	if err != nil {
		return err
	}
	q := `UPDATE policies SET display_name=:display_name, state=:state, conditions=:conditions, grant_json=:grant_json, session_json=:session_json, version=:version, updated_at=:updated_at WHERE id=:id`
	if _, err := s.db.NamedExecContext(ctx, q, args); err != nil {
		return err
	}
	return s.insertPolicyHistory(ctx, p)
}

func (s *SQLPolicyStore) DeletePolicy(ctx context.Context, id string) error {
	q := `DELETE FROM policies WHERE id = :id`
	_, err := s.db.NamedExecContext(ctx, q, map[string]any{"id": id})
	return err
}

func (s *SQLPolicyStore) GetPolicy(ctx context.Context, id string) (*casim.Policy, error) {
	q := `SELECT id, display_name, state, conditions, grant_json, session_json, version, created_at, updated_at FROM policies WHERE id = :id`
	r, err := s.db.NamedQueryContext(ctx, q, map[string]any{"id": id})
	if err != nil {
		return nil, err
	}
	defer r.Close()
	if !r.Next() {
		return nil, fmt.Errorf("policy not found: %s", id)
	}
	return scanPolicy(r)
}

// ListPolicies returns policies ordered by creation time so evaluation and
// sweep runs see a stable order.
func (s *SQLPolicyStore) ListPolicies(ctx context.Context) ([]*casim.Policy, error) {
	q := `SELECT id, display_name, state, conditions, grant_json, session_json, version, created_at, updated_at FROM policies ORDER BY created_at, id`
	r, err := s.db.NamedQueryContext(ctx, q, map[string]any{})
	if err != nil {
		return nil, err
	}
	defer r.Close()
	out := make([]*casim.Policy, 0)
	for r.Next() {
		p, err := scanPolicy(r)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// GetPolicyHistory returns the append-only snapshots recorded for a policy,
// oldest first.
func (s *SQLPolicyStore) GetPolicyHistory(ctx context.Context, id string) ([]*casim.Policy, error) {
	q := `SELECT snapshot_json FROM policy_history WHERE policy_id = :policy_id ORDER BY id ASC`
	r, err := s.db.NamedQueryContext(ctx, q, map[string]any{"policy_id": id})
	if err != nil {
		return nil, err
	}
	defer r.Close()
	out := make([]*casim.Policy, 0)
	for r.Next() {
		var snap string
		if err := r.Scan(&snap); err != nil {
			return nil, err
		}
		p := &casim.Policy{}
		if err := json.Unmarshal([]byte(snap), p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no history for policy %s", id)
	}
	return out, nil
}

func (s *SQLPolicyStore) insertPolicyHistory(ctx context.Context, p *casim.Policy) error {
	b, err := json.Marshal(p)
	if err != nil {
		return err
	}
	q := `INSERT INTO policy_history(policy_id, snapshot_json) VALUES(:policy_id, :snapshot_json)`
	_, err = s.db.NamedExecContext(ctx, q, map[string]any{"policy_id": p.ID, "snapshot_json": string(b)})
	return err
}

func policyArgs(p *casim.Policy) (map[string]any, error) {
	conditions, err := json.Marshal(p.Conditions)
	if err != nil {
		return nil, err
	}
	var grant, session any
	if p.Grant != nil {
		b, err := json.Marshal(p.Grant)
		if err != nil {
			return nil, err
		}
		grant = string(b)
	}
	if p.Session != nil {
		b, err := json.Marshal(p.Session)
		if err != nil {
			return nil, err
		}
		session = string(b)
	}
	return map[string]any{
		"id":           p.ID,
		"display_name": p.DisplayName,
		"state":        string(p.State),
		"conditions":   string(conditions),
		"grant_json":   grant,
		"session_json": session,
		"version":      p.Version,
		"created_at":   p.CreatedAt,
		"updated_at":   p.UpdatedAt,
	}, nil
}

// rowScanner abstracts the squealx row handle so scanning stays driver-neutral.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanPolicy(r rowScanner) (*casim.Policy, error) {
	var id, displayName, state, conditions string
	var grantJSON, sessionJSON *string
	var version int
	var createdRaw, updatedRaw any
	if err := r.Scan(&id, &displayName, &state, &conditions, &grantJSON, &sessionJSON, &version, &createdRaw, &updatedRaw); err != nil {
		return nil, err
	}
	p := &casim.Policy{
		ID:          id,
		DisplayName: displayName,
		State:       casim.PolicyState(state),
		Version:     version,
		CreatedAt:   scanTime(createdRaw),
		UpdatedAt:   scanTime(updatedRaw),
	}
	if err := json.Unmarshal([]byte(conditions), &p.Conditions); err != nil {
		return nil, fmt.Errorf("policy %s: decode conditions: %w", id, err)
	}
	if grantJSON != nil && *grantJSON != "" {
		g := &casim.GrantControls{}
		if err := json.Unmarshal([]byte(*grantJSON), g); err != nil {
			return nil, fmt.Errorf("policy %s: decode grant controls: %w", id, err)
		}
		p.Grant = g
	}
	if sessionJSON != nil && *sessionJSON != "" {
		sc := &casim.SessionControls{}
		if err := json.Unmarshal([]byte(*sessionJSON), sc); err != nil {
			return nil, fmt.Errorf("policy %s: decode session controls: %w", id, err)
		}
		p.Session = sc
	}
	return p, nil
}
