package tests

import (
	"context"
	"testing"

	"github.com/aretw0/stepflow/pkg/domain"
	"github.com/aretw0/stepflow/pkg/ports"
)

// TaskLoaderContractTest is a reusable test suite that verifies if an adapter complies
// with ports.TaskLoader. wantLeaves lists the expected leaf identifiers in order.
func TaskLoaderContractTest(t *testing.T, loader ports.TaskLoader, wantLeaves []string) {
	t.Helper()
	ctx := context.Background()

	t.Run("LoadTask_Leaves", func(t *testing.T) {
		task, err := loader.LoadTask(ctx)
		if err != nil {
			t.Fatalf("unexpected error loading task: %v", err)
		}
		leaves := task.Flatten()
		if len(leaves) != len(wantLeaves) {
			t.Fatalf("leaf count mismatch: got %d, want %d", len(leaves), len(wantLeaves))
		}
		for i, s := range leaves {
			if s.Identifier() != wantLeaves[i] {
				t.Errorf("leaf %d: got %q, want %q", i, s.Identifier(), wantLeaves[i])
			}
		}
	})

	t.Run("LoadTask_UniqueIdentifiers", func(t *testing.T) {
		task, err := loader.LoadTask(ctx)
		if err != nil {
			t.Fatalf("unexpected error loading task: %v", err)
		}
		seen := make(map[string]bool)
		domain.Walk(task.Steps, func(s domain.Step) {
			if seen[s.Identifier()] {
				t.Errorf("duplicate identifier %q", s.Identifier())
			}
			seen[s.Identifier()] = true
		})
	})

	t.Run("LoadTask_Repeatable", func(t *testing.T) {
		first, err := loader.LoadTask(ctx)
		if err != nil {
			t.Fatal(err)
		}
		second, err := loader.LoadTask(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if first.ID != second.ID || len(first.Flatten()) != len(second.Flatten()) {
			t.Error("loading twice produced different tasks")
		}
	})
}
