package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"jobportal/ingestion-service/internal/model"
)

// RawStore is the slice of the crawl-response store extraction needs.
type RawStore interface {
	FindPending(ctx context.Context, limit int) ([]model.RawCrawlResponse, error)
	UpdateStatus(ctx context.Context, id int64, status model.CrawlStatus) error
}

// RecordInserter receives extracted job records.
type RecordInserter interface {
	InsertIfAbsent(ctx context.Context, rec model.ExternalJobRecord) (bool, error)
}

// portalPosting is one posting inside a raw crawl payload.
type portalPosting struct {
	PortalJobID string          `json:"portal_job_id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Company     string          `json:"company"`
	City        string          `json:"city"`
	Country     string          `json:"country"`
	Skills      json.RawMessage `json:"skills"`
	Tags        json.RawMessage `json:"tags"`
}

// ExtractStats summarizes one extraction batch.
type ExtractStats struct {
	Responses int           `json:"responses"`
	Inserted  int           `json:"inserted"`
	Dupes     int           `json:"dupes"`
	Failed    int           `json:"failed"`
	Elapsed   time.Duration `json:"elapsed"`
}

// Extractor turns pending raw crawl responses into ExternalJobRecords.
type Extractor struct {
	Raw       RawStore
	Records   RecordInserter
	BatchSize int
}

func NewExtractor(raw RawStore, records RecordInserter) *Extractor {
	return &Extractor{Raw: raw, Records: records, BatchSize: 100}
}

// ExtractAll drains pending crawl responses. A payload that fails to parse
// marks only its own response FAILED; sibling responses are unaffected.
func (e *Extractor) ExtractAll(ctx context.Context) (ExtractStats, error) {
	start := time.Now()

	pending, err := e.Raw.FindPending(ctx, e.BatchSize)
	if err != nil {
		return ExtractStats{}, fmt.Errorf("find pending responses: %w", err)
	}

	stats := ExtractStats{Responses: len(pending)}
	for _, raw := range pending {
		if err := e.Raw.UpdateStatus(ctx, raw.ID, model.CrawlProcessing); err != nil {
			log.Printf("[extract] response %d: %v", raw.ID, err)
			stats.Failed++
			continue
		}

		inserted, dupes, err := e.extractOne(ctx, raw)
		if err != nil {
			log.Printf("[extract] response %d failed: %v", raw.ID, err)
			stats.Failed++
			e.setStatus(ctx, raw.ID, model.CrawlFailed)
			continue
		}
		stats.Inserted += inserted
		stats.Dupes += dupes
		e.setStatus(ctx, raw.ID, model.CrawlCompleted)
	}

	stats.Elapsed = time.Since(start)
	log.Printf("[extract] batch done: responses=%d inserted=%d dupes=%d failed=%d elapsed=%s",
		stats.Responses, stats.Inserted, stats.Dupes, stats.Failed, stats.Elapsed)
	return stats, nil
}

func (e *Extractor) extractOne(ctx context.Context, raw model.RawCrawlResponse) (inserted, dupes int, err error) {
	var postings []portalPosting
	if err := json.Unmarshal([]byte(raw.RawPayload), &postings); err != nil {
		return 0, 0, fmt.Errorf("parse payload: %w", err)
	}

	for _, p := range postings {
		if strings.TrimSpace(p.PortalJobID) == "" || strings.TrimSpace(p.Title) == "" {
			continue
		}
		rec := model.ExternalJobRecord{
			PortalJobID:    p.PortalJobID,
			PortalName:     raw.PortalName,
			JobTitle:       strings.TrimSpace(p.Title),
			JobDescription: strings.TrimSpace(p.Description),
			CompanyName:    strings.TrimSpace(p.Company),
			CityName:       strings.TrimSpace(p.City),
			CountryName:    strings.TrimSpace(p.Country),
			SkillsJSON:     string(p.Skills),
			JobTagsJSON:    string(p.Tags),
		}
		ok, err := e.Records.InsertIfAbsent(ctx, rec)
		if err != nil {
			return inserted, dupes, err
		}
		if ok {
			inserted++
		} else {
			dupes++
		}
	}
	return inserted, dupes, nil
}

func (e *Extractor) setStatus(ctx context.Context, id int64, status model.CrawlStatus) {
	if err := e.Raw.UpdateStatus(ctx, id, status); err != nil {
		log.Printf("[extract] response %d: set status %s: %v", id, status, err)
	}
}

// ParseTextArray parses the `[{"text": "…"}]` shape shared by skill and tag
// lists, tolerating a plain string array. Empty values are dropped.
func ParseTextArray(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return nil
	}

	var objects []struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal([]byte(raw), &objects); err == nil {
		var out []string
		for _, o := range objects {
			if v := strings.TrimSpace(o.Text); v != "" {
				out = append(out, v)
			}
		}
		if len(out) > 0 {
			return out
		}
	}

	var plain []string
	if err := json.Unmarshal([]byte(raw), &plain); err == nil {
		var out []string
		for _, v := range plain {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
		return out
	}
	return nil
}
