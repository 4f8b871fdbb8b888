package session

import (
	"context"
	"strconv"

	"github.com/clipdeck/clipdeck-agent/internal/filter"
	"github.com/clipdeck/clipdeck-agent/internal/transport"
)

const (
	configKeyFilter = "filter"
	configKeyRate   = "rate"
)

// Filter returns the session's current filter selection. Defaults to None.
func (s *Service) Filter(ctx context.Context) filter.Selection {
	v, err := s.repo.GetConfig(ctx, configKeyFilter)
	if err != nil || v == "" {
		return filter.None
	}
	sel, err := filter.Parse(v)
	if err != nil {
		return filter.None
	}
	return sel
}

// SetFilter overwrites the session's filter selection.
func (s *Service) SetFilter(ctx context.Context, sel filter.Selection) error {
	return s.repo.SetConfig(ctx, configKeyFilter, string(sel))
}

// Rate returns the session's playback rate. Defaults to 1.
func (s *Service) Rate(ctx context.Context) float64 {
	v, err := s.repo.GetConfig(ctx, configKeyRate)
	if err != nil || v == "" {
		return 1
	}
	rate, err := strconv.ParseFloat(v, 64)
	if err != nil || !transport.RateAllowed(rate) {
		return 1
	}
	return rate
}

// SetRate stores the playback rate, restricted to the allowed multipliers.
func (s *Service) SetRate(ctx context.Context, rate float64) error {
	if !transport.RateAllowed(rate) {
		return transport.ErrRateNotAllowed
	}
	return s.repo.SetConfig(ctx, configKeyRate, strconv.FormatFloat(rate, 'g', -1, 64))
}
