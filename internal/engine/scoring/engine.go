package scoring

import "strings"

type Stage string

const (
	StageHotLead     Stage = "hot_lead"
	StageWarmLead    Stage = "warm_lead"
	StageQualified   Stage = "qualified"
	StageNurture     Stage = "nurture"
	StageUnqualified Stage = "unqualified"
)

const baseScore = 30

// Phrase matching is substring-based and not mutually exclusive: every
// phrase that occurs in the text contributes its weight.
var positivePhrases = map[string]int{
	"interested": 15,
	"demo":       20,
	"pricing":    18,
	"budget":     25,
	"buy":        20,
	"purchase":   20,
	"meeting":    15,
	"call":       12,
	"urgent":     15,
	"decision":   18,
	"timeline":   12,
	"when":       8,
	"how much":   15,
	"cost":       10,
}

var negativePhrases = map[string]int{
	"not interested": 30,
	"unsubscribe":    40,
	"stop":           25,
	"remove":         20,
	"spam":           35,
	"too expensive":  15,
	"no budget":      20,
	"maybe later":    10,
}

var companySizeWeights = map[string]int{
	"solo":       5,
	"small":      10,
	"medium":     15,
	"large":      20,
	"enterprise": 25,
}

var budgetWeights = map[string]int{
	"low":        5,
	"medium":     15,
	"high":       20,
	"enterprise": 25,
}

var authorityWeights = map[string]int{
	"low":    5,
	"medium": 12,
	"high":   20,
}

var timelineWeights = map[string]int{
	"urgent":    20,
	"1-3months": 15,
	"3-6months": 10,
	"6months+":  5,
}

var interestWeights = map[string]int{
	"high":   10,
	"medium": 6,
	"low":    2,
	"none":   0,
}

// Signals are categorical qualification tags extracted from a form or a
// prior conversation. Unknown values contribute nothing to the score.
type Signals struct {
	CompanySize    string `json:"company_size,omitempty"`
	BudgetRange    string `json:"budget_range,omitempty"`
	AuthorityLevel string `json:"authority_level,omitempty"`
	Timeline       string `json:"timeline,omitempty"`
	InterestLevel  string `json:"interest_level,omitempty"`
}

func (s Signals) Empty() bool {
	return s.CompanySize == "" && s.BudgetRange == "" && s.AuthorityLevel == "" &&
		s.Timeline == "" && s.InterestLevel == ""
}

// ScoreText scores a raw inbound message. Deterministic, no network.
// Empty text yields the base score.
func ScoreText(text string) int {
	score := baseScore
	lower := strings.ToLower(text)

	for phrase, weight := range positivePhrases {
		if strings.Contains(lower, phrase) {
			score += weight
		}
	}
	for phrase, weight := range negativePhrases {
		if strings.Contains(lower, phrase) {
			score -= weight
		}
	}

	if questions := strings.Count(text, "?"); questions > 0 {
		score += min(questions*8, 20)
	}
	if len(text) > 100 {
		score += min(len(text)/50, 15)
	}

	return clamp(score)
}

// ScoreSignals sums the weighted buckets. The maximum possible sum is
// 25+25+20+20+10 = 100, so the result needs no clamping.
func ScoreSignals(s Signals) int {
	return companySizeWeights[s.CompanySize] +
		budgetWeights[s.BudgetRange] +
		authorityWeights[s.AuthorityLevel] +
		timelineWeights[s.Timeline] +
		interestWeights[s.InterestLevel]
}

// DetermineStage maps a score to a pipeline stage. Checked in fixed
// priority order; total over every (score, readyForDemo) pair.
func DetermineStage(score int, readyForDemo bool) Stage {
	switch {
	case readyForDemo && score >= 70:
		return StageHotLead
	case score >= 60:
		return StageWarmLead
	case score >= 40:
		return StageQualified
	case score >= 20:
		return StageNurture
	default:
		return StageUnqualified
	}
}

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
