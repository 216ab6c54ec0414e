package ingest_test

import (
	"context"
	"testing"

	"jobportal/ingestion-service/internal/ingest"
	"jobportal/ingestion-service/internal/model"
)

type fakeRawStore struct {
	pending  []model.RawCrawlResponse
	statuses map[int64]model.CrawlStatus
}

func (s *fakeRawStore) FindPending(_ context.Context, limit int) ([]model.RawCrawlResponse, error) {
	if len(s.pending) > limit {
		return s.pending[:limit], nil
	}
	return s.pending, nil
}

func (s *fakeRawStore) UpdateStatus(_ context.Context, id int64, status model.CrawlStatus) error {
	if s.statuses == nil {
		s.statuses = make(map[int64]model.CrawlStatus)
	}
	s.statuses[id] = status
	return nil
}

type fakeInserter struct {
	seen     map[string]bool
	inserted []model.ExternalJobRecord
}

func (s *fakeInserter) InsertIfAbsent(_ context.Context, rec model.ExternalJobRecord) (bool, error) {
	if s.seen == nil {
		s.seen = make(map[string]bool)
	}
	if s.seen[rec.PortalJobID] {
		return false, nil
	}
	s.seen[rec.PortalJobID] = true
	s.inserted = append(s.inserted, rec)
	return true, nil
}

func TestExtractAll_InsertsAndDedupes(t *testing.T) {
	payload := `[
		{"portal_job_id":"pj-1","title":"Engineer","company":"Acme Corp","city":"Pune"},
		{"portal_job_id":"pj-1","title":"Engineer","company":"Acme Corp"},
		{"portal_job_id":"pj-2","title":"Analyst","company":"Globex"},
		{"portal_job_id":"","title":"No Id"},
		{"portal_job_id":"pj-3","title":""}
	]`
	raw := &fakeRawStore{pending: []model.RawCrawlResponse{
		{ID: 1, PortalName: "portal-a", RawPayload: payload, Status: model.CrawlPending},
	}}
	inserter := &fakeInserter{}
	e := ingest.NewExtractor(raw, inserter)

	stats, err := e.ExtractAll(context.Background())
	if err != nil {
		t.Fatalf("ExtractAll: %v", err)
	}
	if stats.Inserted != 2 || stats.Dupes != 1 || stats.Failed != 0 {
		t.Fatalf("stats = %+v", stats)
	}
	if raw.statuses[1] != model.CrawlCompleted {
		t.Errorf("status = %s, want COMPLETED", raw.statuses[1])
	}
	if inserter.inserted[0].PortalName != "portal-a" || inserter.inserted[0].CityName != "Pune" {
		t.Errorf("first record = %+v", inserter.inserted[0])
	}
}

func TestExtractAll_BadPayloadIsolated(t *testing.T) {
	raw := &fakeRawStore{pending: []model.RawCrawlResponse{
		{ID: 1, PortalName: "portal-a", RawPayload: `not json`, Status: model.CrawlPending},
		{ID: 2, PortalName: "portal-a", RawPayload: `[{"portal_job_id":"pj-9","title":"DBA"}]`, Status: model.CrawlPending},
	}}
	inserter := &fakeInserter{}
	e := ingest.NewExtractor(raw, inserter)

	stats, err := e.ExtractAll(context.Background())
	if err != nil {
		t.Fatalf("ExtractAll: %v", err)
	}
	if stats.Failed != 1 || stats.Inserted != 1 {
		t.Fatalf("stats = %+v, want the bad payload isolated", stats)
	}
	if raw.statuses[1] != model.CrawlFailed || raw.statuses[2] != model.CrawlCompleted {
		t.Errorf("statuses = %v", raw.statuses)
	}
}

func TestParseTextArray(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{`[{"text":"Java"},{"text":"Go"}]`, []string{"Java", "Go"}},
		{`[{"text":" Java "},{"text":""}]`, []string{"Java"}},
		{`["Java","Go"]`, []string{"Java", "Go"}},
		{``, nil},
		{`null`, nil},
		{`not json`, nil},
		{`[]`, nil},
	}
	for _, c := range cases {
		got := ingest.ParseTextArray(c.in)
		if len(got) != len(c.want) {
			t.Errorf("ParseTextArray(%q) = %v, want %v", c.in, got, c.want)
			continue
		}
		for i := range c.want {
			if got[i] != c.want[i] {
				t.Errorf("ParseTextArray(%q)[%d] = %q, want %q", c.in, i, got[i], c.want[i])
			}
		}
	}
}
