package routine

import (
	"context"
	"fmt"

	"github.com/MrSnakeDoc/routine/internal/domain"
	"github.com/MrSnakeDoc/routine/internal/logger"
)

// ImportResult summarizes one import run.
type ImportResult struct {
	Created   int
	Duplicate int
	Invalid   int
}

// ImportMissing creates each input whose URL is not stored yet.
// Invalid inputs are logged and skipped rather than failing the run.
func (s *Service) ImportMissing(ctx context.Context, source string, inputs []domain.CreateInput) (ImportResult, error) {
	var res ImportResult

	existing, err := s.store.List(ctx)
	if err != nil {
		return res, fmt.Errorf("list items: %w", err)
	}
	known := make(map[string]bool, len(existing))
	for _, it := range existing {
		known[it.URL] = true
	}

	for _, in := range inputs {
		in = in.Normalize()
		if known[in.URL] {
			res.Duplicate++
			continue
		}
		if err := domain.ValidateCreate(in); err != nil {
			res.Invalid++
			s.log.Warn("skipping invalid import entry",
				logger.String("source", source),
				logger.String("name", in.Name),
				logger.Error(err))
			continue
		}
		if _, err := s.store.Create(ctx, in); err != nil {
			return res, fmt.Errorf("import %s: %w", in.Name, err)
		}
		known[in.URL] = true
		res.Created++
	}
	return res, nil
}
