package pipeline

// Stage is one step of the summarization chain. Stages run strictly in
// declaration order.
type Stage int

const (
	StageExtraction Stage = iota + 1
	StageDrafting
	StagePolishing
)

const (
	DonePercent = 100
	DoneMessage = "✅ Done!"
)

var stages = []Stage{StageExtraction, StageDrafting, StagePolishing}

func (s Stage) String() string {
	switch s {
	case StageExtraction:
		return "Extraction"
	case StageDrafting:
		return "Drafting"
	case StagePolishing:
		return "Polishing"
	default:
		return "Unknown"
	}
}

// Percent is the progress reported right before the stage starts.
func (s Stage) Percent() int {
	switch s {
	case StageExtraction:
		return 10
	case StageDrafting:
		return 45
	case StagePolishing:
		return 80
	default:
		return 0
	}
}

func (s Stage) ProgressMessage() string {
	switch s {
	case StageExtraction:
		return "🔍 Agent 1/3 — Analyzing content..."
	case StageDrafting:
		return "📝 Agent 2/3 — Writing summary..."
	case StagePolishing:
		return "✨ Agent 3/3 — Polishing & insights..."
	default:
		return ""
	}
}

// InputBudget caps the source text characters quoted into the stage prompt.
// Zero means the stage does not quote the source.
func (s Stage) InputBudget() int {
	switch s {
	case StageExtraction:
		return 10000
	case StageDrafting:
		return 8000
	default:
		return 0
	}
}
