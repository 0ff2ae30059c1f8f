package recon

import (
	"context"
	"fmt"
	"sort"
	"time"

	"footypool/ingestion/internal/models"
	"footypool/ingestion/internal/provider"
	"footypool/ingestion/internal/repository"

	"github.com/rs/zerolog/log"
)

// Report is a read-only comparison of the provider's view of one entity kind
// against what the store holds. Nothing here mutates data; the report is for
// operators deciding whether a resync is due.
type Report struct {
	Kind           models.EntityKind `json:"kind"`
	MissingInStore []string          `json:"missing_in_store"`
	ExtraInStore   []string          `json:"extra_in_store"`
	Mismatched     []string          `json:"mismatched"`
	Matching       int               `json:"matching"`
	GeneratedAt    time.Time         `json:"generated_at"`
}

// DiffOptions narrows a diff. From/To bound the fixture window; Fetch narrows
// provider calls the same way sync jobs do.
type DiffOptions struct {
	From  time.Time
	To    time.Time
	Fetch *provider.Options
}

// Reporter builds reconciliation reports from live provider fetches and
// stored fingerprints.
type Reporter struct {
	provider *provider.Client
	db       *repository.Database
}

// NewReporter creates a reporter.
func NewReporter(p *provider.Client, db *repository.Database) *Reporter {
	return &Reporter{provider: p, db: db}
}

// Diff compares the provider's current entities of one kind against stored,
// mapped entities.
func (r *Reporter) Diff(ctx context.Context, kind models.EntityKind, opts DiffOptions) (*Report, error) {
	providerFPs, err := r.providerFingerprints(ctx, kind, opts)
	if err != nil {
		return nil, err
	}

	storedFPs, err := r.db.Mappings.StoredFingerprints(ctx, kind)
	if err != nil {
		return nil, err
	}

	report := diffSets(providerFPs, storedFPs)
	report.Kind = kind
	report.GeneratedAt = time.Now().UTC()

	log.Info().
		Str("kind", string(kind)).
		Int("missing", len(report.MissingInStore)).
		Int("extra", len(report.ExtraInStore)).
		Int("mismatched", len(report.Mismatched)).
		Int("matching", report.Matching).
		Msg("Reconciliation report built")

	return report, nil
}

// providerFingerprints fetches the provider's entities of one kind and
// reduces them to the same fingerprint format StoredFingerprints produces.
func (r *Reporter) providerFingerprints(ctx context.Context, kind models.EntityKind, opts DiffOptions) (map[string]string, error) {
	fps := make(map[string]string)

	switch kind {
	case models.KindCountry:
		records, err := r.provider.FetchCountries(ctx)
		if err != nil {
			return nil, err
		}
		for _, rec := range records {
			fps[rec.ExternalID] = rec.Name
		}
	case models.KindLeague:
		records, err := r.provider.FetchLeagues(ctx, opts.Fetch)
		if err != nil {
			return nil, err
		}
		for _, rec := range records {
			fps[rec.ExternalID] = rec.Name
		}
	case models.KindSeason:
		records, err := r.provider.FetchSeasons(ctx, opts.Fetch)
		if err != nil {
			return nil, err
		}
		for _, rec := range records {
			fps[rec.ExternalID] = fmt.Sprintf("%d", rec.Year)
		}
	case models.KindTeam:
		records, err := r.provider.FetchTeams(ctx, opts.Fetch)
		if err != nil {
			return nil, err
		}
		for _, rec := range records {
			fps[rec.ExternalID] = rec.Name
		}
	case models.KindBookmaker:
		records, err := r.provider.FetchBookmakers(ctx)
		if err != nil {
			return nil, err
		}
		for _, rec := range records {
			fps[rec.ExternalID] = rec.Name
		}
	case models.KindMarket:
		records, err := r.provider.FetchMarkets(ctx)
		if err != nil {
			return nil, err
		}
		for _, rec := range records {
			fps[rec.ExternalID] = rec.Name
		}
	case models.KindFixture:
		if opts.From.IsZero() || opts.To.IsZero() {
			return nil, fmt.Errorf("fixture diff requires a time window")
		}
		records, err := r.provider.FetchFixturesBetween(ctx, opts.From, opts.To, opts.Fetch)
		if err != nil {
			return nil, err
		}
		for _, rec := range records {
			fps[rec.ExternalID] = fixtureFingerprint(rec.State, rec.HomeGoals, rec.AwayGoals)
		}
	default:
		return nil, fmt.Errorf("unsupported entity kind: %s", kind)
	}

	return fps, nil
}

// fixtureFingerprint matches the stored fixture fingerprint format.
func fixtureFingerprint(state string, home, away *int) string {
	h, a := "-", "-"
	if home != nil {
		h = fmt.Sprintf("%d", *home)
	}
	if away != nil {
		a = fmt.Sprintf("%d", *away)
	}
	return fmt.Sprintf("%s|%s:%s", state, h, a)
}

// diffSets compares two external id -> fingerprint maps. External ids are
// sorted in every bucket so reports are deterministic.
func diffSets(provider, stored map[string]string) *Report {
	report := &Report{
		MissingInStore: []string{},
		ExtraInStore:   []string{},
		Mismatched:     []string{},
	}

	for id, fp := range provider {
		storedFP, ok := stored[id]
		switch {
		case !ok:
			report.MissingInStore = append(report.MissingInStore, id)
		case storedFP != fp:
			report.Mismatched = append(report.Mismatched, id)
		default:
			report.Matching++
		}
	}

	for id := range stored {
		if _, ok := provider[id]; !ok {
			report.ExtraInStore = append(report.ExtraInStore, id)
		}
	}

	sort.Strings(report.MissingInStore)
	sort.Strings(report.ExtraInStore)
	sort.Strings(report.Mismatched)

	return report
}
