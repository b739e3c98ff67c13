package taskdef

// TaskDef is the document form of a task.
type TaskDef struct {
	ID              string      `json:"id" yaml:"id" mapstructure:"id"`
	Title           string      `json:"title,omitempty" yaml:"title,omitempty" mapstructure:"title"`
	ProgressMarkers []string    `json:"progress_markers,omitempty" yaml:"progress_markers,omitempty" mapstructure:"progress_markers"`
	Rules           []string    `json:"rules,omitempty" yaml:"rules,omitempty" mapstructure:"rules"`
	Skip            []string    `json:"skip,omitempty" yaml:"skip,omitempty" mapstructure:"skip"`
	Branches        []BranchDef `json:"branches,omitempty" yaml:"branches,omitempty" mapstructure:"branches"`
	Steps           []StepDef   `json:"steps" yaml:"steps" mapstructure:"steps"`
}

// StepDef is the document form of a step. A step with nested steps is a section.
type StepDef struct {
	ID       string `json:"id" yaml:"id" mapstructure:"id"`
	Type     string `json:"type,omitempty" yaml:"type,omitempty" mapstructure:"type"`
	Title    string `json:"title,omitempty" yaml:"title,omitempty" mapstructure:"title"`
	Text     string `json:"text,omitempty" yaml:"text,omitempty" mapstructure:"text"`
	Detail   string `json:"detail,omitempty" yaml:"detail,omitempty" mapstructure:"detail"`
	Footnote string `json:"footnote,omitempty" yaml:"footnote,omitempty" mapstructure:"footnote"`

	BackDisabled  bool `json:"back_disabled,omitempty" yaml:"back_disabled,omitempty" mapstructure:"back_disabled"`
	SkipIfPresent bool `json:"skip_if_present,omitempty" yaml:"skip_if_present,omitempty" mapstructure:"skip_if_present"`

	Fields []FieldDef `json:"fields,omitempty" yaml:"fields,omitempty" mapstructure:"fields"`
	Steps  []StepDef  `json:"steps,omitempty" yaml:"steps,omitempty" mapstructure:"steps"`

	// Order and Section position steps stored one per document (see the loam
	// adapter). They are ignored inside a single task file.
	Order   int    `json:"order,omitempty" yaml:"order,omitempty" mapstructure:"order"`
	Section string `json:"section,omitempty" yaml:"section,omitempty" mapstructure:"section"`
}

// FieldDef is the document form of an input field.
type FieldDef struct {
	ID           string      `json:"id" yaml:"id" mapstructure:"id"`
	Prompt       string      `json:"prompt,omitempty" yaml:"prompt,omitempty" mapstructure:"prompt"`
	PromptDetail string      `json:"prompt_detail,omitempty" yaml:"prompt_detail,omitempty" mapstructure:"prompt_detail"`
	Placeholder  string      `json:"placeholder,omitempty" yaml:"placeholder,omitempty" mapstructure:"placeholder"`
	Optional     bool        `json:"optional,omitempty" yaml:"optional,omitempty" mapstructure:"optional"`
	DataType     string      `json:"data_type" yaml:"data_type" mapstructure:"data_type"`
	UIHint       string      `json:"ui_hint,omitempty" yaml:"ui_hint,omitempty" mapstructure:"ui_hint"`
	Choices      []ChoiceDef `json:"choices,omitempty" yaml:"choices,omitempty" mapstructure:"choices"`
	Rules        []RuleDef   `json:"rules,omitempty" yaml:"rules,omitempty" mapstructure:"rules"`
}

// ChoiceDef is the document form of a choice. A bare string is shorthand for
// a choice whose text and value are that string.
type ChoiceDef struct {
	Text      string `json:"text" yaml:"text" mapstructure:"text"`
	Detail    string `json:"detail,omitempty" yaml:"detail,omitempty" mapstructure:"detail"`
	Value     any    `json:"value,omitempty" yaml:"value,omitempty" mapstructure:"value"`
	Exclusive bool   `json:"exclusive,omitempty" yaml:"exclusive,omitempty" mapstructure:"exclusive"`
	Icon      string `json:"icon,omitempty" yaml:"icon,omitempty" mapstructure:"icon"`
}

// RuleDef is the document form of a survey rule.
type RuleDef struct {
	Operator string `json:"operator,omitempty" yaml:"operator,omitempty" mapstructure:"operator"`
	Matching any    `json:"matching,omitempty" yaml:"matching,omitempty" mapstructure:"matching"`
	SkipTo   string `json:"skip_to,omitempty" yaml:"skip_to,omitempty" mapstructure:"skip_to"`
}

// BranchDef branches after a step on the answer to a field of any earlier step.
type BranchDef struct {
	After   string `json:"after" yaml:"after" mapstructure:"after"`
	Field   string `json:"field" yaml:"field" mapstructure:"field"`
	RuleDef `json:",inline" yaml:",inline" mapstructure:",squash"`
}
