// Package resolve implements the entity-resolution cascade that maps raw
// scraped names onto the canonical taxonomy tables.
//
// The cascade runs exact match, memoized lookup, substring search, AI
// disambiguation and (for skills) auto-create, in that order, and escalates
// names that exhaust every stage. Stage failures fall through to the next
// stage; a resolver call never fails fatally because a collaborator did.
package resolve

import (
	"context"
	"log/slog"
	"strings"

	"jobportal/ingestion-service/internal/ai"
	"jobportal/ingestion-service/internal/match"
	"jobportal/ingestion-service/internal/model"
)

// Confidence values assigned by each cascade stage.
const (
	ConfExact           = 1.0
	ConfSingleCandidate = 0.8
	ConfBestCandidate   = 0.7
	ConfAIMatch         = 0.85
	ConfTokenFallback   = 0.7
	ConfAutoCreate      = 0.5
)

// noMatch is the sentinel the AI client is instructed to return when none of
// the offered candidates fits.
const noMatch = "NO_MATCH"

// EntitySource exposes the lookups the cascade needs over one canonical
// taxonomy table.
type EntitySource interface {
	Kind() model.EntityType
	// FindExact returns the entity whose name case-insensitively equals name,
	// or nil when absent.
	FindExact(ctx context.Context, name string) (*model.Entity, error)
	// Search returns entities whose name contains name (case-insensitive).
	Search(ctx context.Context, name string) ([]model.Entity, error)
}

// Lister is implemented by sources that can enumerate their whole table. The
// designation resolver uses it to build token-filtered AI candidate lists.
type Lister interface {
	ListAll(ctx context.Context) ([]model.Entity, error)
}

// Creator is implemented by sources that may create a canonical row for an
// unknown name. Only the skill source does.
type Creator interface {
	Create(ctx context.Context, name string) (*model.Entity, error)
}

// UsageTracker is implemented by sources that track how often an entity is
// matched. Only the skill source does.
type UsageTracker interface {
	Touch(ctx context.Context, id int64) error
}

// MemoStore is the persisted cache of previously confirmed mappings.
type MemoStore interface {
	// Lookup returns the highest-confidence parent name recorded for
	// (entityType, name), with ok=false when no mapping exists.
	Lookup(ctx context.Context, entityType model.EntityType, name string) (parent string, confidence float64, ok bool, err error)
	// Record persists a confirmed mapping. Best-effort: callers log and
	// continue on error.
	Record(ctx context.Context, entityType model.EntityType, parent, similar string, confidence float64) error
}

// EscalationStore queues names that exhausted the cascade.
type EscalationStore interface {
	InsertIfAbsent(ctx context.Context, esc model.PendingEscalation) error
}

// Generator produces text for a prompt. *ai.Client implements it.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Options carries the per-kind thresholds and stage toggles.
type Options struct {
	// MinScore is the similarity a multi-candidate substring match must reach.
	MinScore float64
	// WeakScore is the bar a lone substring candidate must clear.
	WeakScore float64
	// TokenFallback enables the token-count last resort after a failed AI
	// stage. Designation only.
	TokenFallback bool
	// AutoCreate enables creating a canonical row for an unknown name.
	// Skill only; the source must implement Creator.
	AutoCreate bool
	// MaxAICandidates bounds the candidate list offered to the AI client.
	MaxAICandidates int
}

// DefaultOptions returns the stage configuration for an entity kind.
func DefaultOptions(kind model.EntityType) Options {
	opts := Options{
		MinScore:        0.7,
		WeakScore:       0.5,
		MaxAICandidates: 25,
	}
	switch kind {
	case model.EntityDesignation:
		opts.TokenFallback = true
	case model.EntitySkill:
		opts.AutoCreate = true
	}
	return opts
}

// Resolver runs the cascade for one entity kind.
type Resolver struct {
	Source      EntitySource
	Memo        MemoStore
	Escalations EscalationStore
	AI          Generator
	Opts        Options
}

// NewResolver wires a Resolver with the default options for the source's kind.
func NewResolver(source EntitySource, memo MemoStore, esc EscalationStore, gen Generator) *Resolver {
	return &Resolver{
		Source:      source,
		Memo:        memo,
		Escalations: esc,
		AI:          gen,
		Opts:        DefaultOptions(source.Kind()),
	}
}

// Resolve maps rawName onto a canonical entity. sourceID and portalName are
// carried into the escalation row when every stage fails. The returned result
// has Confidence 0.0 and no id for unresolved or empty names; that is the
// designed terminal outcome, not an error.
func (r *Resolver) Resolve(ctx context.Context, rawName string, sourceID int64, portalName string) model.ResolutionResult {
	name := strings.TrimSpace(rawName)
	if name == "" {
		return model.ResolutionResult{}
	}
	kind := r.Source.Kind()

	// Stage 1: exact match.
	if ent, err := r.Source.FindExact(ctx, name); err != nil {
		slog.Warn("exact lookup failed", "type", kind, "name", name, "err", err)
	} else if ent != nil {
		return r.matched(ctx, ent, ConfExact)
	}

	// Stage 2: memoized mapping.
	if res, ok := r.fromMemo(ctx, kind, name); ok {
		return res
	}

	// Stage 3: substring search ranked by similarity.
	candidates := r.search(ctx, name)
	if res, ok := r.fromCandidates(ctx, kind, name, candidates); ok {
		return res
	}

	// Stage 4: AI disambiguation over a bounded candidate list.
	if res, ok := r.fromAI(ctx, kind, name, candidates); ok {
		return res
	}

	// Stage 5: auto-create, skill only.
	if r.Opts.AutoCreate {
		if creator, ok := r.Source.(Creator); ok {
			ent, err := creator.Create(ctx, name)
			if err != nil {
				slog.Warn("auto-create failed", "type", kind, "name", name, "err", err)
			} else if ent != nil {
				return model.ResolutionResult{EntityID: &ent.ID, Name: ent.Name, Confidence: ConfAutoCreate}
			}
		}
	}

	// Stage 6: escalate for offline curation.
	r.escalate(ctx, kind, name, sourceID, portalName)
	return model.ResolutionResult{}
}

// matched builds the success result and bumps the source's usage counter when
// it tracks one.
func (r *Resolver) matched(ctx context.Context, ent *model.Entity, confidence float64) model.ResolutionResult {
	if tracker, ok := r.Source.(UsageTracker); ok {
		if err := tracker.Touch(ctx, ent.ID); err != nil {
			slog.Warn("usage touch failed", "type", r.Source.Kind(), "id", ent.ID, "err", err)
		}
	}
	return model.ResolutionResult{EntityID: &ent.ID, Name: ent.Name, Confidence: confidence}
}

func (r *Resolver) fromMemo(ctx context.Context, kind model.EntityType, name string) (model.ResolutionResult, bool) {
	parent, confidence, ok, err := r.Memo.Lookup(ctx, kind, name)
	if err != nil {
		slog.Warn("memo lookup failed", "type", kind, "name", name, "err", err)
		return model.ResolutionResult{}, false
	}
	if !ok {
		return model.ResolutionResult{}, false
	}
	// The parent may have been renamed or merged since the mapping was
	// recorded; fall through to the full cascade when it no longer resolves.
	ent, err := r.Source.FindExact(ctx, parent)
	if err != nil || ent == nil {
		return model.ResolutionResult{}, false
	}
	return r.matched(ctx, ent, confidence), true
}

func (r *Resolver) search(ctx context.Context, name string) []model.Entity {
	candidates, err := r.Source.Search(ctx, name)
	if err != nil {
		slog.Warn("substring search failed", "type", r.Source.Kind(), "name", name, "err", err)
		return nil
	}
	return candidates
}

func (r *Resolver) fromCandidates(ctx context.Context, kind model.EntityType, name string, candidates []model.Entity) (model.ResolutionResult, bool) {
	switch len(candidates) {
	case 0:
		return model.ResolutionResult{}, false
	case 1:
		cand := candidates[0]
		if match.Score(name, cand.Name) >= r.Opts.WeakScore {
			r.record(ctx, kind, cand.Name, name, ConfSingleCandidate)
			return r.matched(ctx, &cand, ConfSingleCandidate), true
		}
		return model.ResolutionResult{}, false
	}

	best, bestScore := pickBest(name, candidates)
	if best == nil || bestScore < r.Opts.MinScore {
		return model.ResolutionResult{}, false
	}
	r.record(ctx, kind, best.Name, name, ConfBestCandidate)
	return r.matched(ctx, best, ConfBestCandidate), true
}

// fromAI offers a bounded candidate list to the AI client and validates its
// pick twice: the answer must be one of the offered candidates, and the pick
// must independently look like the input. Free-running generation is not
// trusted on its own.
func (r *Resolver) fromAI(ctx context.Context, kind model.EntityType, name string, candidates []model.Entity) (model.ResolutionResult, bool) {
	tokens := match.Tokens(name)
	if len(candidates) == 0 {
		if r.Opts.TokenFallback {
			candidates = r.tokenCandidates(ctx, tokens)
		} else {
			candidates = r.searchTokens(ctx, tokens)
		}
	}
	if len(candidates) == 0 {
		return model.ResolutionResult{}, false
	}
	if len(candidates) > r.Opts.MaxAICandidates {
		candidates = candidates[:r.Opts.MaxAICandidates]
	}

	names := make([]string, len(candidates))
	for i, c := range candidates {
		names[i] = c.Name
	}

	answer, err := r.AI.Generate(ctx, ai.MatchPrompt(strings.ToLower(string(kind)), name, names))
	if err != nil {
		if err != ai.ErrUnavailable {
			slog.Warn("ai disambiguation failed", "type", kind, "name", name, "err", err)
		}
		return r.tokenFallback(ctx, kind, name, tokens, candidates)
	}
	answer = strings.TrimSpace(answer)
	if answer == "" || strings.EqualFold(answer, noMatch) {
		return r.tokenFallback(ctx, kind, name, tokens, candidates)
	}

	pick := findCandidate(answer, candidates)
	if pick == nil || !validPick(name, pick.Name) {
		return r.tokenFallback(ctx, kind, name, tokens, candidates)
	}

	r.record(ctx, kind, pick.Name, name, ConfAIMatch)
	return r.matched(ctx, pick, ConfAIMatch), true
}

// tokenCandidates filters the full canonical table down to entities sharing
// at least one token with the input. Requires the source to be a Lister.
func (r *Resolver) tokenCandidates(ctx context.Context, tokens []string) []model.Entity {
	lister, ok := r.Source.(Lister)
	if !ok || len(tokens) == 0 {
		return nil
	}
	all, err := lister.ListAll(ctx)
	if err != nil {
		slog.Warn("list-all failed", "type", r.Source.Kind(), "err", err)
		return nil
	}
	var filtered []model.Entity
	for _, ent := range all {
		if match.ContainsAnyToken(ent.Name, tokens) {
			filtered = append(filtered, ent)
		}
	}
	return filtered
}

// searchTokens widens the candidate net when the full-name search found
// nothing: one substring search per token, results deduped by id.
func (r *Resolver) searchTokens(ctx context.Context, tokens []string) []model.Entity {
	seen := make(map[int64]bool)
	var out []model.Entity
	for _, token := range tokens {
		if len(token) <= 2 {
			continue
		}
		found, err := r.Source.Search(ctx, token)
		if err != nil {
			slog.Warn("token search failed", "type", r.Source.Kind(), "token", token, "err", err)
			continue
		}
		for _, ent := range found {
			if !seen[ent.ID] {
				seen[ent.ID] = true
				out = append(out, ent)
			}
		}
	}
	return out
}

// tokenFallback picks the candidate with the most overlapping tokens when the
// AI stage produced nothing usable. Disabled for every kind but designation.
func (r *Resolver) tokenFallback(ctx context.Context, kind model.EntityType, name string, tokens []string, candidates []model.Entity) (model.ResolutionResult, bool) {
	if !r.Opts.TokenFallback || len(tokens) == 0 {
		return model.ResolutionResult{}, false
	}
	var best *model.Entity
	bestCount := 0
	for i := range candidates {
		if n := match.CountTokenMatches(candidates[i].Name, tokens); n > bestCount {
			best = &candidates[i]
			bestCount = n
		}
	}
	if best == nil {
		return model.ResolutionResult{}, false
	}
	r.record(ctx, kind, best.Name, name, ConfTokenFallback)
	return r.matched(ctx, best, ConfTokenFallback), true
}

func (r *Resolver) record(ctx context.Context, kind model.EntityType, parent, similar string, confidence float64) {
	if strings.EqualFold(parent, similar) {
		return
	}
	if err := r.Memo.Record(ctx, kind, parent, similar, confidence); err != nil {
		slog.Warn("memo record failed", "type", kind, "parent", parent, "similar", similar, "err", err)
	}
}

func (r *Resolver) escalate(ctx context.Context, kind model.EntityType, name string, sourceID int64, portalName string) {
	esc := model.PendingEscalation{
		EntityName:  name,
		EntityType:  kind,
		SourceTable: "external_job_details",
		SourceID:    sourceID,
		PortalName:  portalName,
	}
	if err := r.Escalations.InsertIfAbsent(ctx, esc); err != nil {
		slog.Warn("escalation insert failed", "type", kind, "name", name, "err", err)
	}
}

// pickBest returns the highest-scoring candidate against name.
func pickBest(name string, candidates []model.Entity) (*model.Entity, float64) {
	var best *model.Entity
	bestScore := 0.0
	for i := range candidates {
		if s := match.Score(name, candidates[i].Name); s > bestScore {
			best = &candidates[i]
			bestScore = s
		}
	}
	return best, bestScore
}

// findCandidate matches an AI answer back to an offered candidate.
func findCandidate(answer string, candidates []model.Entity) *model.Entity {
	for i := range candidates {
		if strings.EqualFold(answer, candidates[i].Name) {
			return &candidates[i]
		}
	}
	return nil
}

// validPick is the second AI validation gate: the pick must look like the
// input on its own merits before it is trusted. A score of at least 0.8 means
// the normalized forms are equal, one contains the other, or nearly every
// token overlaps.
func validPick(input, pick string) bool {
	return match.Score(input, pick) >= 0.8
}
