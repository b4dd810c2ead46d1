package stores

import (
	"context"
	"database/sql"
	"testing"

	"github.com/oarkflow/casim"
	"github.com/oarkflow/squealx"
	_ "modernc.org/sqlite"
)

func newTestDB(t *testing.T) *squealx.DB {
	t.Helper()
	sqlDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })
	db := squealx.NewDb(sqlDB, "sqlite", "testdb")
	if err := Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func testPolicy(id string) *casim.Policy {
	return &casim.Policy{
		ID:          id,
		DisplayName: "Require MFA",
		State:       casim.StateEnabled,
		Conditions: casim.Conditions{
			Users:        &casim.ConditionSlot{Include: []string{casim.IncludeAll}},
			Applications: &casim.ConditionSlot{Include: []string{"office365:*"}},
		},
		Grant: &casim.GrantControls{
			Operator: casim.OperatorOR,
			Controls: []string{casim.ControlMFA},
		},
		Session: &casim.SessionControls{
			PersistentBrowser: casim.BrowserNever,
		},
	}
}

func TestSQLPolicyStoreRoundtrip(t *testing.T) {
	db := newTestDB(t)
	store := NewSQLPolicyStore(db)
	ctx := context.Background()

	p := testPolicy("pol-1")
	if err := store.CreatePolicy(ctx, p); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := store.GetPolicy(ctx, "pol-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Checksum() != p.Checksum() {
		t.Fatalf("semantic fields changed across the roundtrip")
	}
	if got.DisplayName != "Require MFA" || got.State != casim.StateEnabled {
		t.Fatalf("unexpected policy: %+v", got)
	}
	if got.Grant == nil || got.Grant.Operator != casim.OperatorOR {
		t.Fatalf("grant not restored: %+v", got.Grant)
	}
	if got.Session == nil || got.Session.PersistentBrowser != casim.BrowserNever {
		t.Fatalf("session not restored: %+v", got.Session)
	}
}

func TestSQLPolicyStoreNilGrantAndSession(t *testing.T) {
	db := newTestDB(t)
	store := NewSQLPolicyStore(db)
	ctx := context.Background()

	p := &casim.Policy{ID: "pol-bare", State: casim.StateDisabled}
	if err := store.CreatePolicy(ctx, p); err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := store.GetPolicy(ctx, "pol-bare")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Grant != nil || got.Session != nil {
		t.Fatalf("nil grant/session should stay nil, got %+v %+v", got.Grant, got.Session)
	}
}

func TestSQLPolicyStoreUpdateAndDelete(t *testing.T) {
	db := newTestDB(t)
	store := NewSQLPolicyStore(db)
	ctx := context.Background()

	p := testPolicy("pol-1")
	if err := store.CreatePolicy(ctx, p); err != nil {
		t.Fatalf("create: %v", err)
	}

	p.DisplayName = "Require MFA v2"
	p.Version = 1
	if err := store.UpdatePolicy(ctx, p); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := store.GetPolicy(ctx, "pol-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.DisplayName != "Require MFA v2" || got.Version != 1 {
		t.Fatalf("update not persisted: %+v", got)
	}

	if err := store.DeletePolicy(ctx, "pol-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.GetPolicy(ctx, "pol-1"); err == nil {
		t.Fatalf("deleted policy should not resolve")
	}
}

func TestSQLPolicyStoreListOrder(t *testing.T) {
	db := newTestDB(t)
	store := NewSQLPolicyStore(db)
	ctx := context.Background()

	for _, id := range []string{"pol-a", "pol-b", "pol-c"} {
		if err := store.CreatePolicy(ctx, testPolicy(id)); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}
	policies, err := store.ListPolicies(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(policies) != 3 {
		t.Fatalf("expected 3 policies, got %d", len(policies))
	}
}

func TestSQLPolicyStoreHistory(t *testing.T) {
	db := newTestDB(t)
	store := NewSQLPolicyStore(db)
	ctx := context.Background()

	p := testPolicy("pol-1")
	if err := store.CreatePolicy(ctx, p); err != nil {
		t.Fatalf("create: %v", err)
	}
	p.DisplayName = "Require MFA v2"
	if err := store.UpdatePolicy(ctx, p); err != nil {
		t.Fatalf("update: %v", err)
	}

	history, err := store.GetPolicyHistory(ctx, "pol-1")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) < 2 {
		t.Fatalf("expected at least 2 snapshots, got %d", len(history))
	}
	if history[0].DisplayName != "Require MFA" {
		t.Fatalf("oldest snapshot should carry the original name, got %s", history[0].DisplayName)
	}
	if history[len(history)-1].DisplayName != "Require MFA v2" {
		t.Fatalf("latest snapshot should carry the updated name")
	}

	if _, err := store.GetPolicyHistory(ctx, "missing"); err == nil {
		t.Fatalf("history of an unknown policy should fail")
	}
}

func TestSQLPolicyStoreImplementsPolicyStore(t *testing.T) {
	var _ casim.PolicyStore = (*SQLPolicyStore)(nil)
}
