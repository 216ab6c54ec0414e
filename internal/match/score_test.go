package match_test

import (
	"testing"

	"jobportal/ingestion-service/internal/match"
)

// ── Score ──────────────────────────────────────────────────────────────────

func TestScore_IdenticalInput(t *testing.T) {
	names := []string{"Acme Corp", "google", "Senior Software Engineer", "Bengaluru"}
	for _, n := range names {
		if got := match.Score(n, n); got != 1.0 {
			t.Errorf("Score(%q, %q) = %v, want 1.0", n, n, got)
		}
	}
}

func TestScore_EmptyInput(t *testing.T) {
	cases := [][2]string{
		{"", ""},
		{"", "Acme"},
		{"Acme", ""},
		{"   ", "Acme"},
	}
	for _, c := range cases {
		if got := match.Score(c[0], c[1]); got != 0.0 {
			t.Errorf("Score(%q, %q) = %v, want 0.0", c[0], c[1], got)
		}
	}
}

func TestScore_NormalizedEquality(t *testing.T) {
	cases := [][2]string{
		{"Acme Corp", "acme corp"},
		{"Acme-Corp", "Acme Corp."},
		{"J.P. Morgan", "JP Morgan"},
	}
	for _, c := range cases {
		if got := match.Score(c[0], c[1]); got != 1.0 {
			t.Errorf("Score(%q, %q) = %v, want 1.0", c[0], c[1], got)
		}
	}
}

func TestScore_Containment(t *testing.T) {
	cases := [][2]string{
		{"Microsoft India", "Microsoft"},
		{"Acme", "Acme Corporation"},
	}
	for _, c := range cases {
		if got := match.Score(c[0], c[1]); got != 0.8 {
			t.Errorf("Score(%q, %q) = %v, want 0.8", c[0], c[1], got)
		}
	}
}

func TestScore_TokenOverlap(t *testing.T) {
	// "software" and "engineer" match; max token count is 3.
	got := match.Score("Senior Software Engineer", "Software Engineer II extra")
	want := 2.0 / 4.0
	if got != want {
		t.Errorf("Score = %v, want %v", got, want)
	}
}

func TestScore_ShortTokensIgnored(t *testing.T) {
	// "of" is too short to count as a matching token.
	if got := match.Score("Bank of America", "House of Cards"); got != 0.0 {
		t.Errorf("Score = %v, want 0.0 (short tokens must not match)", got)
	}
}

func TestScore_NoOverlap(t *testing.T) {
	if got := match.Score("Nala Robotics", "Silicon Labs"); got != 0.0 {
		t.Errorf("Score = %v, want 0.0", got)
	}
}

// ── Tokens ─────────────────────────────────────────────────────────────────

func TestTokens_Delimiters(t *testing.T) {
	got := match.Tokens("Senior Engineer - Backend/Infra (Remote), C++ & Go")
	want := []string{"senior", "engineer", "backend", "infra", "remote", "c", "go"}
	if len(got) != len(want) {
		t.Fatalf("Tokens = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Tokens[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestTokens_Empty(t *testing.T) {
	if got := match.Tokens("   "); len(got) != 0 {
		t.Errorf("Tokens(blank) = %v, want empty", got)
	}
}

// ── ContainsAnyToken / CountTokenMatches ───────────────────────────────────

func TestContainsAnyToken(t *testing.T) {
	tokens := match.Tokens("Lead Python Developer")
	if !match.ContainsAnyToken("Software Developer", tokens) {
		t.Error("expected 'developer' token to match 'Software Developer'")
	}
	if match.ContainsAnyToken("Accountant", tokens) {
		t.Error("expected no token match against 'Accountant'")
	}
	if match.ContainsAnyToken("", tokens) {
		t.Error("empty name must never match")
	}
	if match.ContainsAnyToken("Software Developer", nil) {
		t.Error("empty token list must never match")
	}
}

func TestCountTokenMatches(t *testing.T) {
	tokens := match.Tokens("Senior Software Engineer")
	cases := []struct {
		name string
		want int
	}{
		{"Software Engineer", 2},
		{"Senior Software Engineer", 3},
		{"Product Manager", 0},
	}
	for _, c := range cases {
		if got := match.CountTokenMatches(c.name, tokens); got != c.want {
			t.Errorf("CountTokenMatches(%q) = %d, want %d", c.name, got, c.want)
		}
	}
}
