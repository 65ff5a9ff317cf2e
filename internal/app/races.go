package app

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/shanebarringer/ultracoach-sub001/internal/domain"
	"github.com/shanebarringer/ultracoach-sub001/internal/importer"
	"github.com/shanebarringer/ultracoach-sub001/internal/metrics"
)

// ImportResult reports a race file import: how many records landed and which
// rows were rejected.
type ImportResult struct {
	Imported int                 `json:"imported"`
	Failed   int                 `json:"failed"`
	Races    []*domain.Race      `json:"races"`
	Errors   []importer.RowError `json:"errors,omitempty"`
}

// ListRaces returns an athlete's races, visible to the actor.
func (s *Service) ListRaces(ctx context.Context, actor *domain.User, athleteID uuid.UUID) ([]*domain.Race, error) {
	if athleteID == uuid.Nil {
		athleteID = actor.ID
	}
	if !s.canAccessAthlete(ctx, actor, athleteID) {
		return nil, domain.ErrRaceNotFound
	}
	return s.races.ListByAthlete(ctx, athleteID)
}

// CreateRace records a manually entered race for the actor.
func (s *Service) CreateRace(ctx context.Context, actor *domain.User, race *domain.Race) (*domain.Race, error) {
	if race.Name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	if race.DistanceM <= 0 {
		return nil, fmt.Errorf("%w: distance must be positive", domain.ErrInvalidInput)
	}

	race.AthleteID = actor.ID
	race.Source = domain.RaceSourceManual

	created, err := s.races.Create(ctx, race)
	if err != nil {
		metrics.RacesImported.WithLabelValues(string(domain.RaceSourceManual), "error").Inc()
		return nil, err
	}
	metrics.RacesImported.WithLabelValues(string(domain.RaceSourceManual), "ok").Inc()
	s.invalidateDashboards(ctx, actor.ID)
	return created, nil
}

// DeleteRace removes one of the actor's races.
func (s *Service) DeleteRace(ctx context.Context, actor *domain.User, id uuid.UUID) error {
	race, err := s.races.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if race.AthleteID != actor.ID {
		return domain.ErrRaceNotFound
	}
	if err := s.races.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateDashboards(ctx, actor.ID)
	return nil
}

// ImportRaces parses an uploaded GPX or CSV file (picked by extension) and
// creates race records for the actor. Bad CSV rows become per-row errors in
// the result, not a failed request.
func (s *Service) ImportRaces(ctx context.Context, actor *domain.User, filename string, file io.Reader) (*ImportResult, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".gpx":
		return s.importGPX(ctx, actor, file)
	case ".csv":
		return s.importCSV(ctx, actor, file)
	default:
		return nil, fmt.Errorf("%w: unsupported file type, want .gpx or .csv", importer.ErrInvalidFile)
	}
}

func (s *Service) importGPX(ctx context.Context, actor *domain.User, file io.Reader) (*ImportResult, error) {
	parsed, err := importer.ParseGPX(file)
	if err != nil {
		metrics.RacesImported.WithLabelValues(string(domain.RaceSourceGPX), "error").Inc()
		return nil, err
	}

	race, err := s.races.Create(ctx, parsedToRace(actor.ID, parsed, domain.RaceSourceGPX))
	if err != nil {
		metrics.RacesImported.WithLabelValues(string(domain.RaceSourceGPX), "error").Inc()
		return nil, err
	}

	metrics.RacesImported.WithLabelValues(string(domain.RaceSourceGPX), "ok").Inc()
	s.invalidateDashboards(ctx, actor.ID)
	return &ImportResult{Imported: 1, Races: []*domain.Race{race}}, nil
}

func (s *Service) importCSV(ctx context.Context, actor *domain.User, file io.Reader) (*ImportResult, error) {
	parsed, err := importer.ParseCSV(file)
	if err != nil {
		metrics.RacesImported.WithLabelValues(string(domain.RaceSourceCSV), "error").Inc()
		return nil, err
	}

	result := &ImportResult{Errors: parsed.Errors, Failed: len(parsed.Errors)}
	for i := range parsed.Races {
		race, err := s.races.Create(ctx, parsedToRace(actor.ID, &parsed.Races[i], domain.RaceSourceCSV))
		if err != nil {
			metrics.RacesImported.WithLabelValues(string(domain.RaceSourceCSV), "error").Inc()
			return nil, err
		}
		metrics.RacesImported.WithLabelValues(string(domain.RaceSourceCSV), "ok").Inc()
		result.Races = append(result.Races, race)
		result.Imported++
	}

	if result.Imported > 0 {
		s.invalidateDashboards(ctx, actor.ID)
	}
	return result, nil
}

func parsedToRace(athleteID uuid.UUID, parsed *importer.ParsedRace, source domain.RaceSource) *domain.Race {
	return &domain.Race{
		AthleteID:  athleteID,
		Name:       parsed.Name,
		Sport:      parsed.Sport,
		Date:       parsed.Date,
		DistanceM:  parsed.DistanceM,
		FinishTime: parsed.FinishTime,
		Source:     source,
	}
}
