package ai_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"jobportal/ingestion-service/internal/ai"
)

func geminiStub(t *testing.T, text string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Query().Get("key") == "" {
			t.Error("missing key query parameter")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":` + jsonString(text) + `}]}}]}`))
	}))
}

func jsonString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	return `"` + s + `"`
}

func TestGenerate(t *testing.T) {
	srv := geminiStub(t, "Acme Corp")
	defer srv.Close()

	c := ai.NewClient("test-key", srv.URL)
	got, err := c.Generate(context.Background(), "pick one")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "Acme Corp" {
		t.Errorf("Generate = %q, want %q", got, "Acme Corp")
	}
}

func TestGenerate_SanitizesResponse(t *testing.T) {
	srv := geminiStub(t, "```\nAcme Corp\n```")
	defer srv.Close()

	c := ai.NewClient("test-key", srv.URL)
	got, err := c.Generate(context.Background(), "pick one")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "Acme Corp" {
		t.Errorf("Generate = %q, want %q", got, "Acme Corp")
	}
}

func TestGenerate_NoKey(t *testing.T) {
	c := ai.NewClient("", "http://unused")
	if _, err := c.Generate(context.Background(), "anything"); err != ai.ErrUnavailable {
		t.Errorf("err = %v, want ErrUnavailable", err)
	}
}

func TestGenerate_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := ai.NewClient("test-key", srv.URL)
	if _, err := c.Generate(context.Background(), "anything"); err == nil {
		t.Error("expected error on non-200 response")
	}
}

func TestGenerate_EmptyCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	c := ai.NewClient("test-key", srv.URL)
	if _, err := c.Generate(context.Background(), "anything"); err == nil {
		t.Error("expected error on empty candidates")
	}
}

func TestSanitize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Acme Corp", "Acme Corp"},
		{"  Acme Corp \n", "Acme Corp"},
		{"```html\n<p>Role</p>\n```", "<p>Role</p>"},
		{"```\nNO_MATCH\n```", "NO_MATCH"},
		{`"Senior Engineer"`, "Senior Engineer"},
		{"Here is the refined title:\nSenior Engineer", "Senior Engineer"},
		{"Refined title: Senior Engineer", "Senior Engineer"},
		{"Output: NO_MATCH", "NO_MATCH"},
		{"", ""},
	}
	for _, c := range cases {
		if got := ai.Sanitize(c.in); got != c.want {
			t.Errorf("Sanitize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestMatchPrompt(t *testing.T) {
	p := ai.MatchPrompt("company", "Acme Corp Pvt Ltd", []string{"Acme Corp", "Acme Industries"})
	for _, want := range []string{"Acme Corp Pvt Ltd", "- Acme Corp", "- Acme Industries", "NO_MATCH", "company"} {
		if !strings.Contains(p, want) {
			t.Errorf("MatchPrompt missing %q", want)
		}
	}
}

func TestTitlePrompt_Hint(t *testing.T) {
	with := ai.TitlePrompt("Sr SW Eng II (Bangalore) Req#4432", "Senior Software Engineer")
	if !strings.Contains(with, "Senior Software Engineer") {
		t.Error("TitlePrompt must carry the designation hint")
	}
	without := ai.TitlePrompt("Sr SW Eng II", "")
	if strings.Contains(without, "known to be") {
		t.Error("TitlePrompt without a hint must omit the hint line")
	}
}
