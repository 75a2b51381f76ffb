package scoring

import "context"

// FallbackQuestion is the generic follow-up used whenever no strategy
// produced a better one.
const FallbackQuestion = "Could you tell me more about your current challenges?"

// Input carries the latest inbound text plus any structured signals the
// caller already has.
type Input struct {
	Text    string
	Signals Signals
}

// Evaluation is the outcome of one analysis pass over a lead message.
type Evaluation struct {
	Score         int    `json:"score"`
	InterestLevel string `json:"interest_level"`
	ReadyForDemo  bool   `json:"ready_for_demo"`
	Sentiment     string `json:"sentiment"`
	NextQuestion  string `json:"next_question"`
}

// Strategy analyses a message. Implementations never return an error;
// a strategy that cannot produce a result falls back to a safe default.
// The strategy is picked once at startup, never per request.
type Strategy interface {
	Name() string
	Evaluate(ctx context.Context, in Input) Evaluation
}

// FallbackEvaluation is the safe default used when analysis is
// unavailable: mid-range score, no demo flag, generic next question.
func FallbackEvaluation() Evaluation {
	return Evaluation{
		Score:         baseScore,
		InterestLevel: "medium",
		ReadyForDemo:  false,
		Sentiment:     "neutral",
		NextQuestion:  FallbackQuestion,
	}
}

// HeuristicStrategy is the deterministic, network-free default. Structured
// signals take precedence over raw text when both are present.
type HeuristicStrategy struct{}

func NewHeuristicStrategy() *HeuristicStrategy {
	return &HeuristicStrategy{}
}

func (s *HeuristicStrategy) Name() string { return "heuristic" }

func (s *HeuristicStrategy) Evaluate(ctx context.Context, in Input) Evaluation {
	score := ScoreText(in.Text)
	if !in.Signals.Empty() {
		score = ScoreSignals(in.Signals)
	}

	return Evaluation{
		Score:         score,
		InterestLevel: interestForScore(score),
		ReadyForDemo:  false,
		Sentiment:     "neutral",
		NextQuestion:  FallbackQuestion,
	}
}

func interestForScore(score int) string {
	switch {
	case score >= 60:
		return "high"
	case score >= 40:
		return "medium"
	case score >= 20:
		return "low"
	default:
		return "none"
	}
}
