package scoring

import (
	"strings"
	"testing"
)

func TestScoreText(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{
			name: "empty text yields base score",
			text: "",
			want: 30,
		},
		{
			name: "hard rejection clamps to zero",
			text: "Not interested, please unsubscribe",
			want: 0,
		},
		{
			name: "single positive phrase",
			text: "can we see a demo",
			want: 50,
		},
		{
			name: "multiple phrases all apply",
			text: "we have budget and want a demo",
			want: 75,
		},
		{
			name: "question marks are capped at 20",
			text: "??????",
			want: 50,
		},
		{
			name: "two question marks",
			text: "??",
			want: 46,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ScoreText(tt.text); got != tt.want {
				t.Errorf("ScoreText(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}

func TestScoreText_LengthBonus(t *testing.T) {
	// 150 chars of filler, no phrases, no question marks: 30 + 150/50.
	text := strings.Repeat("z", 150)
	if got := ScoreText(text); got != 33 {
		t.Errorf("ScoreText(150 chars) = %d, want 33", got)
	}

	// Bonus is capped at 15 no matter how long the text gets.
	text = strings.Repeat("z", 5000)
	if got := ScoreText(text); got != 45 {
		t.Errorf("ScoreText(5000 chars) = %d, want 45", got)
	}
}

func TestScoreText_Bounds(t *testing.T) {
	inputs := []string{
		"",
		"hello",
		strings.Repeat("budget demo pricing buy purchase urgent decision ", 100),
		strings.Repeat("spam unsubscribe stop remove not interested ", 100),
		strings.Repeat("?", 1000),
		strings.Repeat("\x00\xff weird bytes ", 50),
	}

	for _, text := range inputs {
		got := ScoreText(text)
		if got < 0 || got > 100 {
			t.Errorf("ScoreText(%.30q...) = %d, out of [0,100]", text, got)
		}
	}
}

func TestScoreText_PositivePhraseMonotonic(t *testing.T) {
	neutral := "hello from our team"
	if base, boosted := ScoreText(neutral), ScoreText(neutral+" demo"); boosted <= base {
		t.Errorf("adding a positive phrase did not raise the score: %d -> %d", base, boosted)
	}
}

func TestScoreSignals(t *testing.T) {
	tests := []struct {
		name    string
		signals Signals
		want    int
	}{
		{
			name:    "all unknown",
			signals: Signals{},
			want:    0,
		},
		{
			name: "structured qualification worked example",
			signals: Signals{
				CompanySize:    "medium",
				BudgetRange:    "medium",
				AuthorityLevel: "high",
				Timeline:       "1-3months",
				InterestLevel:  "high",
			},
			want: 75,
		},
		{
			name: "maximum across all buckets",
			signals: Signals{
				CompanySize:    "enterprise",
				BudgetRange:    "enterprise",
				AuthorityLevel: "high",
				Timeline:       "urgent",
				InterestLevel:  "high",
			},
			want: 100,
		},
		{
			name:    "unrecognised values contribute nothing",
			signals: Signals{CompanySize: "galactic", BudgetRange: "infinite"},
			want:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ScoreSignals(tt.signals); got != tt.want {
				t.Errorf("ScoreSignals() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDetermineStage(t *testing.T) {
	tests := []struct {
		score        int
		readyForDemo bool
		want         Stage
	}{
		{100, true, StageHotLead},
		{70, true, StageHotLead},
		{69, true, StageWarmLead},
		{75, false, StageWarmLead},
		{60, false, StageWarmLead},
		{59, false, StageQualified},
		{40, true, StageQualified},
		{39, false, StageNurture},
		{20, false, StageNurture},
		{19, true, StageUnqualified},
		{0, false, StageUnqualified},
	}

	for _, tt := range tests {
		if got := DetermineStage(tt.score, tt.readyForDemo); got != tt.want {
			t.Errorf("DetermineStage(%d, %v) = %q, want %q", tt.score, tt.readyForDemo, got, tt.want)
		}
	}
}

func TestDetermineStage_Total(t *testing.T) {
	valid := map[Stage]bool{
		StageHotLead:     true,
		StageWarmLead:    true,
		StageQualified:   true,
		StageNurture:     true,
		StageUnqualified: true,
	}

	for score := 0; score <= 100; score++ {
		for _, ready := range []bool{true, false} {
			if got := DetermineStage(score, ready); !valid[got] {
				t.Fatalf("DetermineStage(%d, %v) = %q, not a known stage", score, ready, got)
			}
		}
	}
}
