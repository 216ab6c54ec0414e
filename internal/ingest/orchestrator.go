package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"jobportal/ingestion-service/internal/model"
)

// EntityResolver resolves one raw name for one entity kind.
// *resolve.Resolver implements it.
type EntityResolver interface {
	Resolve(ctx context.Context, rawName string, sourceID int64, portalName string) model.ResolutionResult
}

// RecordStore is the slice of the external-job store the orchestrator needs.
type RecordStore interface {
	FindUnsyncedRefined(ctx context.Context, limit int) ([]model.ExternalJobRecord, error)
	MarkSynced(ctx context.Context, recordID int64) error
}

// JobStore is the canonical job store boundary.
type JobStore interface {
	ExistsByPortalJobID(ctx context.Context, portalJobID string) (bool, error)
	// InsertAndMarkSynced commits the job insert and the source record's
	// synced flag in one transaction.
	InsertAndMarkSynced(ctx context.Context, job *model.CanonicalJob, recordID int64) error
}

// Resolvers bundles the five entity resolvers the orchestrator invokes per
// record.
type Resolvers struct {
	Company     EntityResolver
	Designation EntityResolver
	City        EntityResolver
	Country     EntityResolver
	Skill       EntityResolver
}

// SyncBatchStats summarizes one sync run.
type SyncBatchStats struct {
	RunID   string        `json:"run_id"`
	Total   int           `json:"total"`
	Success int           `json:"success"`
	Errors  int           `json:"errors"`
	Skipped int           `json:"skipped"`
	Elapsed time.Duration `json:"elapsed"`
}

// Orchestrator drives refined records through tagging into the canonical job
// store. Each record is processed in its own transaction boundary: one
// record's failure never rolls back or blocks its siblings.
type Orchestrator struct {
	Records   RecordStore
	Jobs      JobStore
	Resolve   Resolvers
	Events    EventPublisher
	BatchSize int
}

func NewOrchestrator(records RecordStore, jobs JobStore, resolvers Resolvers, events EventPublisher) *Orchestrator {
	return &Orchestrator{
		Records:   records,
		Jobs:      jobs,
		Resolve:   resolvers,
		Events:    events,
		BatchSize: 200,
	}
}

// SyncAll promotes every refined, unsynced record. Per-record failures are
// logged and counted; only an unreachable record store aborts the batch.
func (o *Orchestrator) SyncAll(ctx context.Context) (SyncBatchStats, error) {
	start := time.Now()
	stats := SyncBatchStats{RunID: uuid.NewString()}

	records, err := o.Records.FindUnsyncedRefined(ctx, o.BatchSize)
	if err != nil {
		return stats, fmt.Errorf("find unsynced records: %w", err)
	}
	stats.Total = len(records)
	log.Printf("[sync] run %s: %d candidate records", stats.RunID, stats.Total)

	for i := range records {
		rec := &records[i]
		skipped, err := o.syncOne(ctx, rec)
		switch {
		case err != nil:
			stats.Errors++
			log.Printf("[sync] record %d (%s) failed: %v", rec.ID, rec.PortalJobID, err)
		case skipped:
			stats.Skipped++
		default:
			stats.Success++
			o.publish(ctx, ChannelReindexJob, rec.PortalJobID)
		}
	}

	stats.Elapsed = time.Since(start)
	o.publishSummary(ctx, stats)
	log.Printf("[sync] run %s done: total=%d success=%d errors=%d skipped=%d elapsed=%s",
		stats.RunID, stats.Total, stats.Success, stats.Errors, stats.Skipped, stats.Elapsed)
	return stats, nil
}

// syncOne runs the per-record state machine. skipped is true when the record
// was already promoted on an earlier run.
func (o *Orchestrator) syncOne(ctx context.Context, rec *model.ExternalJobRecord) (skipped bool, err error) {
	exists, err := o.Jobs.ExistsByPortalJobID(ctx, rec.PortalJobID)
	if err != nil {
		return false, fmt.Errorf("existence check: %w", err)
	}
	if exists {
		if err := o.Records.MarkSynced(ctx, rec.ID); err != nil {
			return false, fmt.Errorf("mark synced: %w", err)
		}
		rec.IsSyncedToJobTable = true
		return true, nil
	}

	job := o.tagRecord(ctx, rec)
	if job.CompanyID == nil && job.DesignationID == nil {
		return false, fmt.Errorf("neither company %q nor designation resolvable from %q",
			rec.CompanyName, rec.JobTitle)
	}

	if err := o.Jobs.InsertAndMarkSynced(ctx, job, rec.ID); err != nil {
		return false, fmt.Errorf("promote: %w", err)
	}
	rec.IsSyncedToJobTable = true
	return false, nil
}

// tagRecord invokes the five resolvers independently and assembles the
// canonical job. Unresolved secondary fields fall back to the raw text;
// resolver outcomes never abort each other.
func (o *Orchestrator) tagRecord(ctx context.Context, rec *model.ExternalJobRecord) *model.CanonicalJob {
	company := o.Resolve.Company.Resolve(ctx, rec.CompanyName, rec.ID, rec.PortalName)
	designation := o.Resolve.Designation.Resolve(ctx, rec.JobTitle, rec.ID, rec.PortalName)
	city := o.Resolve.City.Resolve(ctx, rec.CityName, rec.ID, rec.PortalName)
	country := o.Resolve.Country.Resolve(ctx, rec.CountryName, rec.ID, rec.PortalName)

	var skillIDs []int64
	for _, name := range ParseTextArray(rec.SkillsJSON) {
		if res := o.Resolve.Skill.Resolve(ctx, name, rec.ID, rec.PortalName); res.Resolved() {
			skillIDs = append(skillIDs, *res.EntityID)
		}
	}

	job := &model.CanonicalJob{
		PortalJobID:     rec.PortalJobID,
		Title:           fallback(rec.RefinedTitle, rec.JobTitle),
		Description:     fallback(rec.RefinedDescription, rec.JobDescription),
		CompanyID:       company.EntityID,
		CompanyName:     fallback(company.Name, rec.CompanyName),
		DesignationID:   designation.EntityID,
		DesignationName: fallback(designation.Name, rec.JobTitle),
		CityID:          city.EntityID,
		CityName:        fallback(city.Name, rec.CityName),
		CountryID:       country.EntityID,
		CountryName:     fallback(country.Name, rec.CountryName),
		SkillIDs:        skillIDs,
		Tags:            ParseTextArray(rec.JobTagsJSON),
		Platform:        rec.PortalName,
		Active:          true,
	}
	return job
}

func (o *Orchestrator) publish(ctx context.Context, channel, payload string) {
	if o.Events == nil {
		return
	}
	if err := o.Events.Publish(ctx, channel, payload); err != nil {
		slog.Warn("event publish failed", "channel", channel, "err", err)
	}
}

func (o *Orchestrator) publishSummary(ctx context.Context, stats SyncBatchStats) {
	payload, err := json.Marshal(map[string]string{
		"run_id":  stats.RunID,
		"total":   strconv.Itoa(stats.Total),
		"success": strconv.Itoa(stats.Success),
		"errors":  strconv.Itoa(stats.Errors),
		"skipped": strconv.Itoa(stats.Skipped),
	})
	if err != nil {
		return
	}
	o.publish(ctx, ChannelJobsSynced, string(payload))
}

func fallback(preferred, raw string) string {
	if preferred != "" {
		return preferred
	}
	return raw
}
