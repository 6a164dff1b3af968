package access

import (
	"context"
	"path/filepath"
	"testing"
)

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	store := NewFileStore(path)
	ctx := context.Background()

	// Missing file is an empty rule set, not an error.
	rules, err := store.LoadAll(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(rules) != 0 {
		t.Fatalf("expected empty rule set, got %d", len(rules))
	}

	if err := store.Persist(ctx, ruleOf("r1", "+1234*", RuleBlock, "")); err != nil {
		t.Fatalf("persist: %v", err)
	}
	if err := store.Persist(ctx, ruleOf("r2", "+1234567890", RuleAllow, "main")); err != nil {
		t.Fatalf("persist: %v", err)
	}

	rules, err = store.LoadAll(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(rules) != 2 {
		t.Fatalf("rules = %d, want 2", len(rules))
	}

	// Persisting the same ID replaces the rule.
	if err := store.Persist(ctx, ruleOf("r1", "+1234*", RuleAllow, "")); err != nil {
		t.Fatalf("persist update: %v", err)
	}
	rules, _ = store.LoadAll(ctx)
	if len(rules) != 2 {
		t.Fatalf("rules = %d after update, want 2", len(rules))
	}

	if err := store.Delete(ctx, "r1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	rules, _ = store.LoadAll(ctx)
	if len(rules) != 1 || rules[0].ID != "r2" {
		t.Fatalf("unexpected rules after delete: %+v", rules)
	}

	if err := store.Delete(ctx, "r1"); err == nil {
		t.Error("deleting a missing rule should fail")
	}
}
