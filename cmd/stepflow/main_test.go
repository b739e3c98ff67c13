package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/stepflow/internal/cli"
	"github.com/aretw0/stepflow/internal/logging"
	"github.com/aretw0/stepflow/pkg/domain"
)

const taskYAML = `id: onboarding
steps:
  - id: intro
    title: Welcome
  - id: role
    fields:
      - id: role
        data_type: singleChoice.string
        choices: [Engineer, Designer]
        rules:
          - {matching: Designer, skip_to: done}
  - id: stack
    fields:
      - id: language
        data_type: string
  - id: done
    type: completion
`

func writeTask(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "task.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "stepflow version ") {
		t.Errorf("output = %q", out)
	}
}

func TestValidateCommand(t *testing.T) {
	out, err := execute(t, "validate", "--task", writeTask(t, taskYAML))
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !strings.Contains(out, `Task "onboarding" is valid (4 steps)`) {
		t.Errorf("output = %q", out)
	}

	broken := strings.Replace(taskYAML, "skip_to: done", "skip_to: nowhere", 1)
	_, err = execute(t, "validate", "--task", writeTask(t, broken))
	if err == nil || !strings.Contains(err.Error(), "nowhere") {
		t.Errorf("expected unknown skip target error, got %v", err)
	}
}

func TestGraphCommand(t *testing.T) {
	task := writeTask(t, taskYAML)
	out, err := execute(t, "graph", "--task", task)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"graph TD", "intro --> role", `role -. "role == Designer" .-> done`} {
		if !strings.Contains(out, want) {
			t.Errorf("graph output missing %q:\n%s", want, out)
		}
	}

	t.Run("run overlay", func(t *testing.T) {
		dir := t.TempDir()
		p, err := cli.OpenPersistence(cli.StoreOptions{Kind: cli.StoreFile, Dir: dir}, logging.NewNop())
		if err != nil {
			t.Fatal(err)
		}
		at := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
		tr := domain.NewTaskResult("onboarding")
		tr.AddStepHistory(domain.NewStepResult("intro", at, at))
		if err := p.Sessions.Save(context.Background(), "r1", tr); err != nil {
			t.Fatal(err)
		}

		out, err := execute(t, "graph", "--task", task, "--store", "file", "--store-dir", dir, "--run", "r1")
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(out, "class intro visited;") || !strings.Contains(out, "class role current;") {
			t.Errorf("overlay missing:\n%s", out)
		}
	})
}

func TestInitCommand(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "sample")
	out, err := execute(t, "init", dir)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Sample task written to") {
		t.Errorf("output = %q", out)
	}
}

func TestUnknownLogLevel(t *testing.T) {
	_, err := execute(t, "validate", "--task", writeTask(t, taskYAML), "--log-level", "loud")
	if err == nil {
		t.Error("expected an error for an unknown log level")
	}
	rootCmd.PersistentFlags().Set("log-level", "warn")
}
