package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/stepflow/pkg/domain"
	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
)

// Renderer writes steps and prompts to a terminal. Step text is markdown and
// is rendered with glamour unless the renderer is plain.
type Renderer struct {
	w   io.Writer
	out *termenv.Output
	md  *glamour.TermRenderer
}

// Option configures a Renderer.
type Option func(*rendererConfig)

type rendererConfig struct {
	plain bool
	width int
}

// WithPlain disables markdown rendering and colors, for pipes and tests.
func WithPlain() Option {
	return func(c *rendererConfig) { c.plain = true }
}

// WithWordWrap sets the markdown wrap width. Defaults to 80.
func WithWordWrap(width int) Option {
	return func(c *rendererConfig) { c.width = width }
}

// NewRenderer creates a renderer writing to w.
func NewRenderer(w io.Writer, opts ...Option) (*Renderer, error) {
	cfg := rendererConfig{width: 80}
	for _, opt := range opts {
		opt(&cfg)
	}

	r := &Renderer{w: w}
	if cfg.plain {
		r.out = termenv.NewOutput(w, termenv.WithProfile(termenv.Ascii))
		return r, nil
	}
	r.out = termenv.NewOutput(w)

	md, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // light or dark from the terminal background
		glamour.WithWordWrap(cfg.width),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	r.md = md
	return r, nil
}

// Markdown renders a markdown fragment.
func (r *Renderer) Markdown(text string) string {
	if r.md == nil || text == "" {
		return text
	}
	out, err := r.md.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}

// Step writes the header, title and body of step.
func (r *Renderer) Step(step domain.Step, p *domain.Progress) {
	fmt.Fprintln(r.w)
	if p != nil && p.Total > 0 {
		header := fmt.Sprintf("Step %d of %d", p.Current+1, p.Total)
		if p.IsEstimated {
			header = fmt.Sprintf("Step %d of about %d", p.Current+1, p.Total)
		}
		fmt.Fprintln(r.w, r.out.String(header).Faint())
	}

	ui, ok := step.(*domain.UIStep)
	if !ok {
		fmt.Fprintln(r.w, r.out.String(step.Identifier()).Bold())
		return
	}
	title := ui.Title
	if title == "" {
		title = ui.ID
	}
	fmt.Fprintln(r.w, r.out.String(title).Bold().Foreground(r.out.Color("#818cf8")))
	if ui.Text != "" {
		fmt.Fprintln(r.w, r.Markdown(ui.Text))
	}
	if ui.Detail != "" {
		fmt.Fprintln(r.w, r.Markdown(ui.Detail))
	}
	if ui.Footnote != "" {
		fmt.Fprintln(r.w, r.out.String(ui.Footnote).Faint().Italic())
	}
}

// Field writes the prompt of an input field. Choices are numbered from 1 and
// the ones in current are marked.
func (r *Renderer) Field(field domain.InputField, current any) {
	prompt := field.Prompt
	if prompt == "" {
		prompt = field.Identifier
	}
	label := r.out.String(prompt).Bold().String()
	if field.Optional {
		label += r.out.String(" (optional)").Faint().String()
	}
	fmt.Fprintln(r.w, label)
	if field.PromptDetail != "" {
		fmt.Fprintln(r.w, r.out.String(field.PromptDetail).Faint())
	}

	for i, c := range field.Choices {
		mark := " "
		if current != nil && c.Value != nil && domain.AnswerContains(current, c.Value) {
			mark = "x"
		}
		line := fmt.Sprintf("  [%s] %d. %s", mark, i+1, c.Text)
		if c.Exclusive {
			line += r.out.String(" (only)").Faint().String()
		}
		fmt.Fprintln(r.w, line)
	}
	if len(field.Choices) == 0 && current != nil {
		fmt.Fprintln(r.w, r.out.String(fmt.Sprintf("  current: %v", current)).Faint())
	}
}

// Prompt writes the input marker.
func (r *Renderer) Prompt() {
	fmt.Fprint(r.w, r.out.String("> ").Foreground(r.out.Color("#a78bfa")))
}

// Message writes a system message.
func (r *Renderer) Message(format string, args ...any) {
	fmt.Fprintln(r.w, r.out.String(">>> "+fmt.Sprintf(format, args...)).Faint())
}

// Error writes an error message.
func (r *Renderer) Error(err error) {
	fmt.Fprintln(r.w, r.out.String("! "+err.Error()).Foreground(r.out.Color("#fb7185")))
}
