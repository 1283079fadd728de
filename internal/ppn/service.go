package ppn

import (
	"context"

	"github.com/rs/zerolog"
)

// Service provides validated read access to the PPN catalog. The content API
// owns data quality, but records with broken coordinates would render garbage
// markers, so the service drops them before they ever reach the map.
type Service struct {
	repo   Repository
	logger zerolog.Logger
}

// NewService creates a new PPN service.
func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Get retrieves a single PPN. Returns ErrNotFound for records with invalid
// coordinates as well: a PPN the map cannot place does not exist for callers.
func (s *Service) Get(ctx context.Context, id string) (*PPN, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !p.Coordinate.Valid() {
		s.logger.Warn().
			Str("ppn_id", p.ID).
			Float64("lat", p.Coordinate.Lat).
			Float64("lon", p.Coordinate.Lon).
			Msg("ppn has invalid coordinates, hiding from map")
		return nil, ErrNotFound
	}

	return p, nil
}

// List retrieves all mappable PPNs. Records with non-finite or out-of-range
// coordinates are logged and skipped rather than crashing the render.
func (s *Service) List(ctx context.Context) ([]*PPN, error) {
	ppns, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	valid := make([]*PPN, 0, len(ppns))
	for _, p := range ppns {
		if !p.Coordinate.Valid() {
			s.logger.Warn().
				Str("ppn_id", p.ID).
				Float64("lat", p.Coordinate.Lat).
				Float64("lon", p.Coordinate.Lon).
				Msg("ppn has invalid coordinates, skipping")
			continue
		}
		valid = append(valid, p)
	}

	return valid, nil
}
