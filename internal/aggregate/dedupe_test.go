package aggregate

import (
	"testing"

	"github.com/sells-group/adinsights-cli/internal/model"
)

func TestDedupeFindings_CompositeKey(t *testing.T) {
	findings := []model.Finding{
		{Type: "weak_ctr", Campaign: "Brand Search", Platform: "Google"},
		{Type: "weak_ctr", Campaign: "Brand Search", Platform: "Google"},
		{Type: "weak_ctr", Campaign: "Brand Search", Platform: "Meta"},
		{Type: "weak_cvr", Campaign: "Brand Search", Platform: "Google"},
	}
	out := DedupeFindings(findings, DefaultKeyFields)
	if len(out) != 3 {
		t.Fatalf("expected 3 distinct findings, got %d", len(out))
	}
}

func TestDedupeFindings_FirstSeenWins(t *testing.T) {
	findings := []model.Finding{
		{Type: "weak_ctr", Campaign: "A", Platform: "Google", Detail: "first"},
		{Type: "weak_ctr", Campaign: "A", Platform: "Google", Detail: "second"},
	}
	out := DedupeFindings(findings, DefaultKeyFields)
	if len(out) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(out))
	}
	if out[0].Detail != "first" {
		t.Errorf("later duplicate replaced the first occurrence: %q", out[0].Detail)
	}
}

func TestDedupeFindings_TagsParticipateInKey(t *testing.T) {
	findings := []model.Finding{
		{Type: "audience_fatigue", Tags: []string{"retargeting"}},
		{Type: "audience_fatigue", Tags: []string{"lookalike"}},
		{Type: "audience_fatigue", Tags: []string{"retargeting"}},
	}
	out := DedupeFindings(findings, []string{"type", "tags"})
	if len(out) != 2 {
		t.Fatalf("expected tag-distinct findings to survive, got %d", len(out))
	}
}

func TestDedupeFindings_MetaFieldLookup(t *testing.T) {
	findings := []model.Finding{
		{Type: "scale_winner", Meta: map[string]any{"segment": "prospecting"}},
		{Type: "scale_winner", Meta: map[string]any{"segment": "prospecting"}},
		{Type: "scale_winner", Meta: map[string]any{"segment": "retention"}},
	}
	out := DedupeFindings(findings, []string{"type", "segment"})
	if len(out) != 2 {
		t.Fatalf("expected 2 findings keyed by meta field, got %d", len(out))
	}
}

func TestTopN(t *testing.T) {
	findings := []model.Finding{
		{Type: "a"}, {Type: "b"}, {Type: "c"},
	}
	if got := TopN(findings, 2); len(got) != 2 || got[0].Type != "a" {
		t.Errorf("TopN(2) = %v", got)
	}
	if got := TopN(findings, 10); len(got) != 3 {
		t.Errorf("TopN larger than list truncated: %v", got)
	}
	if got := TopN(findings, 0); len(got) != 3 {
		t.Errorf("TopN(0) should disable truncation, got %v", got)
	}
}

func TestCanonicalValue(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"string", "x", "x"},
		{"string slice", []string{"a", "b"}, "(a,b)"},
		{"any slice", []any{"a", 1}, "(a,1)"},
		{"map sorted", map[string]any{"b": "2", "a": "1"}, "{a=1,b=2}"},
		{"nested", map[string]any{"k": []any{"x", "y"}}, "{k=(x,y)}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanonicalValue(tt.in); got != tt.want {
				t.Errorf("CanonicalValue(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCanonicalValue_ListOrderMatters(t *testing.T) {
	if CanonicalValue([]string{"a", "b"}) == CanonicalValue([]string{"b", "a"}) {
		t.Error("list canonical form should be order-sensitive")
	}
}
