package routine

import (
	"context"
	"fmt"

	"github.com/MrSnakeDoc/routine/internal/domain"
	"github.com/MrSnakeDoc/routine/internal/logger"
)

// DemoItem is a seeded item with its starting click count.
type DemoItem struct {
	Input  domain.CreateInput
	Clicks int
}

// DemoItems returns the demonstration dashboard.
func DemoItems() []DemoItem {
	desc := func(s string) *string { return &s }
	order := func(i int) *int { return &i }

	return []DemoItem{
		{
			Input: domain.CreateInput{
				Name:        "Gmail",
				URL:         "https://gmail.com",
				Description: desc("Email management and communication"),
				Order:       order(0),
			},
			Clicks: 45,
		},
		{
			Input: domain.CreateInput{
				Name:        "GitHub",
				URL:         "https://github.com",
				Description: desc("Code repository and version control"),
				Order:       order(1),
			},
			Clicks: 32,
		},
		{
			Input: domain.CreateInput{
				Name:        "Slack",
				URL:         "https://slack.com",
				Description: desc("Team communication and collaboration"),
				Order:       order(2),
			},
			Clicks: 28,
		},
	}
}

// SeedDemo stores DemoItems when the store is empty and returns how many were created.
func (s *Service) SeedDemo(ctx context.Context) (int, error) {
	n, err := s.store.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}
	if n > 0 {
		s.log.Info("store not empty, skipping demo seed", logger.Int("items", n))
		return 0, nil
	}

	created := 0
	for _, demo := range DemoItems() {
		it, err := s.store.Create(ctx, demo.Input)
		if err != nil {
			return created, fmt.Errorf("seed %s: %w", demo.Input.Name, err)
		}
		for i := 0; i < demo.Clicks; i++ {
			if _, err := s.store.IncrementClick(ctx, it.ID); err != nil {
				return created, fmt.Errorf("seed clicks for %s: %w", demo.Input.Name, err)
			}
		}
		created++
	}

	s.log.Info("demo items seeded", logger.Int("count", created))
	return created, nil
}
