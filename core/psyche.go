package core

// ItemScope selects which item kinds an awareness configuration renders.
// The zero value renders all kinds; hiding items takes an explicit ItemsNone.
type ItemScope string

const (
	// ItemsAll renders knowledge and work items.
	ItemsAll ItemScope = "all"
	// ItemsKnowledge renders knowledge items only.
	ItemsKnowledge ItemScope = "knowledge"
	// ItemsWork renders work items only.
	ItemsWork ItemScope = "work"
	// ItemsNone renders no items.
	ItemsNone ItemScope = "none"
)

// Awareness declares which context sections are rendered into a psyche's
// prompt. Each switch is independent; disabled or empty sections are omitted
// from the rendered output entirely.
type Awareness struct {
	ProjectTree    bool      `json:"project_tree" yaml:"project_tree"`
	Tools          bool      `json:"tools" yaml:"tools"`
	Psyches        bool      `json:"psyches" yaml:"psyches"`
	Items          ItemScope `json:"items" yaml:"items"`
	ParentOutput   bool      `json:"parent_output" yaml:"parent_output"`
	FilesInContext bool      `json:"files_in_context" yaml:"files_in_context"`
}

// DefaultAwareness is what a psyche sees when its descriptor declares no
// override: project structure, all items, files in context and any parent
// chain output.
func DefaultAwareness() Awareness {
	return Awareness{
		ProjectTree:    true,
		Items:          ItemsAll,
		ParentOutput:   true,
		FilesInContext: true,
	}
}

// Chain configures recursive hand-off to a successor psyche. After a run,
// the response (trimmed) becomes the successor's parent output, up to
// MaxDepth additional hops.
type Chain struct {
	Successor string `json:"successor" yaml:"successor"`
	MaxDepth  int    `json:"max_depth" yaml:"max_depth"`
}

// Psyche is a named model invocation profile: which model to call, with what
// budget, system text and stop behavior, what it is allowed to see, and an
// optional successor chain.
type Psyche struct {
	Name        string     `json:"name" yaml:"name"`
	DisplayName string     `json:"display_name" yaml:"display_name"`
	Description string     `json:"description" yaml:"description"`
	ModelID     string     `json:"model" yaml:"model"`
	TokenBudget int        `json:"token_budget" yaml:"token_budget"`
	SystemText  string     `json:"system_text" yaml:"system_text"`
	Priming     string     `json:"priming" yaml:"priming"`
	Terminators []string   `json:"terminators" yaml:"terminators"`
	Awareness   *Awareness `json:"awareness" yaml:"awareness"`
	Chain       *Chain     `json:"chain" yaml:"chain"`
}

// EffectiveAwareness returns the descriptor's awareness override or the
// documented default.
func (p Psyche) EffectiveAwareness() Awareness {
	if p.Awareness != nil {
		return *p.Awareness
	}
	return DefaultAwareness()
}
