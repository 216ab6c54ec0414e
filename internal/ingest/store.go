// Package ingest owns the external-job pipeline: extraction of scraped
// payloads into job records and the sync orchestrator that promotes refined,
// tagged records into the canonical job store.
package ingest

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"jobportal/ingestion-service/internal/model"
)

// PGRecordStore persists ExternalJobRecords in external_job_details.
type PGRecordStore struct {
	pool *pgxpool.Pool
}

func NewPGRecordStore(pool *pgxpool.Pool) *PGRecordStore { return &PGRecordStore{pool: pool} }

const recordColumns = `id, portal_job_id, portal_name, job_title, job_description,
	company_name, city_name, country_name, skills_json, job_tags_json,
	refined_title, refined_description, is_refined, is_synced_to_job_table,
	crawl_timestamp, created_at`

func scanRecord(row pgx.Row) (model.ExternalJobRecord, error) {
	var rec model.ExternalJobRecord
	err := row.Scan(&rec.ID, &rec.PortalJobID, &rec.PortalName, &rec.JobTitle, &rec.JobDescription,
		&rec.CompanyName, &rec.CityName, &rec.CountryName, &rec.SkillsJSON, &rec.JobTagsJSON,
		&rec.RefinedTitle, &rec.RefinedDescription, &rec.IsRefined, &rec.IsSyncedToJobTable,
		&rec.CrawlTimestamp, &rec.CreatedAt)
	return rec, err
}

func (s *PGRecordStore) findRecords(ctx context.Context, where string, limit int) ([]model.ExternalJobRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM external_job_details WHERE %s ORDER BY id LIMIT $1`,
		recordColumns, where)
	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query external_job_details: %w", err)
	}
	defer rows.Close()

	var out []model.ExternalJobRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// FindUnrefined returns records awaiting content refinement.
func (s *PGRecordStore) FindUnrefined(ctx context.Context, limit int) ([]model.ExternalJobRecord, error) {
	return s.findRecords(ctx, `NOT is_refined`, limit)
}

// FindUnsyncedRefined returns records eligible for sync.
func (s *PGRecordStore) FindUnsyncedRefined(ctx context.Context, limit int) ([]model.ExternalJobRecord, error) {
	return s.findRecords(ctx, `is_refined AND NOT is_synced_to_job_table`, limit)
}

// SaveRefined persists the refined fields and the refined flag in one update.
func (s *PGRecordStore) SaveRefined(ctx context.Context, rec *model.ExternalJobRecord) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE external_job_details
		    SET refined_title = $2, refined_description = $3, is_refined = $4
		  WHERE id = $1`,
		rec.ID, rec.RefinedTitle, rec.RefinedDescription, rec.IsRefined)
	if err != nil {
		return fmt.Errorf("update refined fields: %w", err)
	}
	return nil
}

// MarkSynced flips the synced flag without touching anything else. Used by
// the idempotent short-circuit when the canonical job already exists.
func (s *PGRecordStore) MarkSynced(ctx context.Context, recordID int64) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE external_job_details SET is_synced_to_job_table = TRUE WHERE id = $1`, recordID)
	if err != nil {
		return fmt.Errorf("mark synced: %w", err)
	}
	return nil
}

// InsertIfAbsent inserts an extracted record unless its portal job id is
// already known. Returns true when a row was inserted.
func (s *PGRecordStore) InsertIfAbsent(ctx context.Context, rec model.ExternalJobRecord) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO external_job_details
		        (portal_job_id, portal_name, job_title, job_description,
		         company_name, city_name, country_name, skills_json, job_tags_json, crawl_timestamp)
		 SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9, NOW()
		  WHERE NOT EXISTS (SELECT 1 FROM external_job_details WHERE portal_job_id = $1)`,
		rec.PortalJobID, rec.PortalName, rec.JobTitle, rec.JobDescription,
		rec.CompanyName, rec.CityName, rec.CountryName, rec.SkillsJSON, rec.JobTagsJSON)
	if err != nil {
		return false, fmt.Errorf("insert external job: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// SyncStats summarizes sync progress over the whole record table.
type SyncStats struct {
	Total      int64   `json:"total"`
	Synced     int64   `json:"synced"`
	Unsynced   int64   `json:"unsynced"`
	Percentage float64 `json:"percentage"`
}

// Stats reports how much of the record table has been promoted.
func (s *PGRecordStore) Stats(ctx context.Context) (SyncStats, error) {
	var st SyncStats
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE is_synced_to_job_table)
		   FROM external_job_details`).Scan(&st.Total, &st.Synced)
	if err != nil {
		return SyncStats{}, fmt.Errorf("sync stats: %w", err)
	}
	st.Unsynced = st.Total - st.Synced
	if st.Total > 0 {
		st.Percentage = float64(st.Synced) / float64(st.Total) * 100
	}
	return st, nil
}

// PGRawStore reads raw crawl responses produced by the crawler.
type PGRawStore struct {
	pool *pgxpool.Pool
}

func NewPGRawStore(pool *pgxpool.Pool) *PGRawStore { return &PGRawStore{pool: pool} }

// FindPending returns crawl responses awaiting extraction.
func (s *PGRawStore) FindPending(ctx context.Context, limit int) ([]model.RawCrawlResponse, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, portal_name, keyword, raw_payload, http_status, status, created_at
		   FROM raw_crawl_responses
		  WHERE status = $1
		  ORDER BY id
		  LIMIT $2`,
		string(model.CrawlPending), limit)
	if err != nil {
		return nil, fmt.Errorf("query raw_crawl_responses: %w", err)
	}
	defer rows.Close()

	var out []model.RawCrawlResponse
	for rows.Next() {
		var raw model.RawCrawlResponse
		var status string
		if err := rows.Scan(&raw.ID, &raw.PortalName, &raw.Keyword, &raw.RawPayload,
			&raw.HTTPStatus, &status, &raw.CreatedAt); err != nil {
			return nil, err
		}
		raw.Status = model.CrawlStatus(status)
		out = append(out, raw)
	}
	return out, rows.Err()
}

// UpdateStatus moves a crawl response through its lifecycle.
func (s *PGRawStore) UpdateStatus(ctx context.Context, id int64, status model.CrawlStatus) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE raw_crawl_responses SET status = $2 WHERE id = $1`, id, string(status))
	if err != nil {
		return fmt.Errorf("update crawl status: %w", err)
	}
	return nil
}

// PGJobStore persists canonical jobs. The insert and the source record's
// synced flag are committed in one transaction so a crash cannot leave a
// promoted job with an unsynced source or the other way round.
type PGJobStore struct {
	pool *pgxpool.Pool
}

func NewPGJobStore(pool *pgxpool.Pool) *PGJobStore { return &PGJobStore{pool: pool} }

func (s *PGJobStore) ExistsByPortalJobID(ctx context.Context, portalJobID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM jobs WHERE portal_job_id = $1)`, portalJobID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("job exists: %w", err)
	}
	return exists, nil
}

func (s *PGJobStore) InsertAndMarkSynced(ctx context.Context, job *model.CanonicalJob, recordID int64) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO jobs
			        (portal_job_id, title, description,
			         company_id, company_name, designation_id, designation_name,
			         city_id, city_name, country_id, country_name,
			         skill_ids, tags, platform, active)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
			 RETURNING id`,
			job.PortalJobID, job.Title, job.Description,
			job.CompanyID, job.CompanyName, job.DesignationID, job.DesignationName,
			job.CityID, job.CityName, job.CountryID, job.CountryName,
			job.SkillIDs, job.Tags, job.Platform, job.Active).Scan(&job.ID)
		if err != nil {
			return fmt.Errorf("insert job: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`UPDATE external_job_details SET is_synced_to_job_table = TRUE WHERE id = $1`,
			recordID); err != nil {
			return fmt.Errorf("mark record synced: %w", err)
		}
		return nil
	})
}
