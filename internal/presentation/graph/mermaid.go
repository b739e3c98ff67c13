package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/stepflow/pkg/domain"
)

// Overlay contains run data to visualize on the graph.
type Overlay struct {
	VisitedSteps []string
	CurrentStep  string
}

// OverlayFor builds an overlay from a run's history.
func OverlayFor(tr *domain.TaskResult, current string) *Overlay {
	if tr == nil {
		return &Overlay{CurrentStep: current}
	}
	return &Overlay{VisitedSteps: tr.VisitedIdentifiers(), CurrentStep: current}
}

var operatorSymbols = map[string]string{
	"":                                "==",
	domain.OperatorEqual:              "==",
	domain.OperatorNotEqual:           "!=",
	domain.OperatorLessThan:           "<",
	domain.OperatorGreaterThan:        ">",
	domain.OperatorLessThanOrEqual:    "<=",
	domain.OperatorGreaterThanOrEqual: ">=",
}

// GenerateMermaid produces a Mermaid flowchart of a task. Sections become
// subgraphs. Shapes follow the step type:
//   - Completion: ((Circle))
//   - Active: [[Subroutine]]
//   - Form: [/Parallelogram/]
//   - Default: [Rectangle]
//
// Solid arrows follow the structural order; dashed arrows are survey rules.
func GenerateMermaid(task *domain.Task, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	writeSteps(&sb, task.Steps, "    ")

	leaves := task.Flatten()
	exitUsed := false
	for i, step := range leaves {
		id := sanitizeMermaidID(step.Identifier())
		if i+1 < len(leaves) {
			fmt.Fprintf(&sb, "    %s --> %s\n", id, sanitizeMermaidID(leaves[i+1].Identifier()))
		}

		form, ok := step.(domain.FormStep)
		if !ok {
			continue
		}
		for _, field := range form.InputFields() {
			for _, rule := range field.SurveyRules {
				target := rule.SkipToIdentifier
				if target == "" {
					target = domain.ExitIdentifier
				}
				if target == domain.ExitIdentifier {
					exitUsed = true
				}
				label := strings.ReplaceAll(ruleLabel(field.Identifier, rule), "\"", "'")
				fmt.Fprintf(&sb, "    %s -. \"%s\" .-> %s\n", id, label, sanitizeMermaidID(target))
			}
		}
	}
	if exitUsed {
		fmt.Fprintf(&sb, "    %s(((\"%s\")))\n", sanitizeMermaidID(domain.ExitIdentifier), domain.ExitIdentifier)
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Black text keeps the labels readable on both light and dark themes.
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visitedSet := make(map[string]bool)
		for _, id := range overlay.VisitedSteps {
			safeID := sanitizeMermaidID(id)
			if !visitedSet[safeID] && safeID != "" {
				visitedSet[safeID] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
			}
		}

		if overlay.CurrentStep != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentStep))
		}
	}

	return sb.String()
}

func writeSteps(sb *strings.Builder, steps []domain.Step, indent string) {
	for _, step := range steps {
		safeID := sanitizeMermaidID(step.Identifier())
		if sec, ok := step.(domain.SectionStep); ok {
			title := step.Identifier()
			if s, ok := step.(*domain.Section); ok && s.Title != "" {
				title = s.Title
			}
			fmt.Fprintf(sb, "%ssubgraph %s[\"%s\"]\n", indent, safeID, escape(title))
			writeSteps(sb, sec.Steps(), indent+"    ")
			fmt.Fprintf(sb, "%send\n", indent)
			continue
		}

		opener, closer := "[", "]"
		label := step.Identifier()
		if ui, ok := step.(*domain.UIStep); ok {
			switch ui.Type {
			case domain.StepTypeCompletion:
				opener, closer = "((", "))"
			case domain.StepTypeActive:
				opener, closer = "[[", "]]"
			case domain.StepTypeForm:
				opener, closer = "[/", "/]"
			}
			if ui.Title != "" {
				label = fmt.Sprintf("%s <br/> %s", ui.ID, escape(ui.Title))
			}
		}
		fmt.Fprintf(sb, "%s%s%s\"%s\"%s\n", indent, safeID, opener, label, closer)
	}
}

func ruleLabel(field string, rule domain.SurveyRule) string {
	if rule.Operator == domain.OperatorSkip {
		return field + " skipped"
	}
	sym, ok := operatorSymbols[rule.Operator]
	if !ok {
		sym = rule.Operator
	}
	return fmt.Sprintf("%s %s %v", field, sym, rule.MatchingAnswer)
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}
