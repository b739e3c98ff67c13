package cli

import (
	"context"
	"fmt"

	"github.com/aretw0/loam/pkg/core"
)

// sampleTask is a short survey showing sections, typed fields and
// answer-based skips. Documents are ordered by their "order" key.
var sampleTask = []core.Document{
	{ID: "welcome.md", Content: `---
order: 1
title: Welcome
---
This short survey takes about **two minutes**.

Type *back* at any prompt to return to the previous step.`},
	{ID: "habits.md", Content: `---
order: 2
type: section
title: Habits
---`},
	{ID: "coffee.md", Content: `---
section: habits
order: 1
title: Coffee
fields:
  - id: drinks_coffee
    prompt: Do you drink coffee?
    data_type: boolean
    rules:
      - {matching: false, skip_to: thanks}
---`},
	{ID: "cups.md", Content: `---
section: habits
order: 2
title: How much?
fields:
  - id: cups
    prompt: Cups per day
    data_type: integer
  - id: brew
    prompt: Favourite brew
    data_type: singleChoice.string
    choices: [Espresso, Filter, Instant]
    optional: true
---`},
	{ID: "thanks.md", Content: `---
order: 3
type: completion
title: Thank you
---
Your answers have been recorded.`},
}

// Scaffold writes a sample task into repo, one document per step.
func Scaffold(ctx context.Context, repo core.Repository) error {
	for _, doc := range sampleTask {
		if err := repo.Save(ctx, doc); err != nil {
			return fmt.Errorf("failed to write %s: %w", doc.ID, err)
		}
	}
	return nil
}
