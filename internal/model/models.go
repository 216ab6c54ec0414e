// Package model defines shared data structures for the ingestion service.
package model

import (
	"fmt"
	"time"
)

// EntityType enumerates the taxonomy kinds handled by the resolution cascade.
// Values mirror the entity_type / type enum columns in PostgreSQL.
type EntityType string

const (
	EntityCompany     EntityType = "COMPANY"
	EntityDesignation EntityType = "DESIGNATION"
	EntityCity        EntityType = "CITY"
	EntityCountry     EntityType = "COUNTRY"
	EntitySkill       EntityType = "SKILL"
)

// ParseEntityType converts a raw string to an EntityType, returning an error
// for unknown values.
func ParseEntityType(s string) (EntityType, error) {
	et := EntityType(s)
	switch et {
	case EntityCompany, EntityDesignation, EntityCity, EntityCountry, EntitySkill:
		return et, nil
	}
	return "", fmt.Errorf("unknown entity type %q", s)
}

// CrawlStatus tracks the lifecycle of a raw crawl response.
type CrawlStatus string

const (
	CrawlPending    CrawlStatus = "PENDING"
	CrawlProcessing CrawlStatus = "PROCESSING"
	CrawlCompleted  CrawlStatus = "COMPLETED"
	CrawlFailed     CrawlStatus = "FAILED"
)

// ParseCrawlStatus converts a raw string to a CrawlStatus, returning an error
// for unknown values.
func ParseCrawlStatus(s string) (CrawlStatus, error) {
	cs := CrawlStatus(s)
	switch cs {
	case CrawlPending, CrawlProcessing, CrawlCompleted, CrawlFailed:
		return cs, nil
	}
	return "", fmt.Errorf("unknown crawl status %q", s)
}

// Entity is one row of a canonical taxonomy table (company, designation,
// city, country or skill). Only the fields the cascade needs.
type Entity struct {
	ID   int64
	Name string
}

// RawCrawlResponse is the raw payload captured from a portal search, exactly
// as the crawler stored it. Consumed once by extraction; immutable afterwards
// except for Status.
type RawCrawlResponse struct {
	ID         int64
	PortalName string
	Keyword    string
	RawPayload string
	HTTPStatus int
	Status     CrawlStatus
	CreatedAt  time.Time
}

// ExternalJobRecord is one scraped posting awaiting refinement and sync.
//
// Invariant: IsSyncedToJobTable implies IsRefined. The record is created by
// extraction with both flags false, mutated in place by the refinement stage
// and the sync orchestrator, and never deleted.
type ExternalJobRecord struct {
	ID                 int64
	PortalJobID        string
	PortalName         string
	JobTitle           string
	JobDescription     string
	CompanyName        string
	CityName           string
	CountryName        string
	SkillsJSON         string
	JobTagsJSON        string
	RefinedTitle       string
	RefinedDescription string
	IsRefined          bool
	IsSyncedToJobTable bool
	CrawlTimestamp     time.Time
	CreatedAt          time.Time
}

// ResolutionResult is the outcome of one resolver invocation. Transient:
// consumed immediately by the orchestrator, never persisted.
type ResolutionResult struct {
	EntityID   *int64
	Name       string
	Confidence float64
	Err        error
}

// Resolved reports whether the cascade produced a usable entity id.
func (r ResolutionResult) Resolved() bool { return r.EntityID != nil }

// SimilarMapping is one memoization row: a previously confirmed
// "similarName resolves to parentName" fact for a given entity type.
// Append-only; readers pick the highest-confidence match.
type SimilarMapping struct {
	ID              int64
	Type            EntityType
	ParentName      string
	SimilarName     string
	ConfidenceScore float64
	Processed       bool
	CreatedAt       time.Time
}

// PendingEscalation records a name that exhausted the cascade, queued for
// offline curation. Unique on (EntityName, EntityType).
type PendingEscalation struct {
	ID          int64
	EntityName  string
	EntityType  EntityType
	SourceTable string
	SourceID    int64
	PortalName  string
	Notes       string
	CreatedAt   time.Time
}

// CanonicalJob is the promoted posting once tagging succeeds. Created exactly
// once per ExternalJobRecord, enforced by the portal-job-id existence check
// before insertion.
type CanonicalJob struct {
	ID              int64
	PortalJobID     string
	Title           string
	Description     string
	CompanyID       *int64
	CompanyName     string
	DesignationID   *int64
	DesignationName string
	CityID          *int64
	CityName        string
	CountryID       *int64
	CountryName     string
	SkillIDs        []int64
	Tags            []string
	Platform        string
	Active          bool
	CreatedAt       time.Time
}
