package simulator

import (
	"fmt"

	"jotacomputing/counterbridge/internal/broker"
	"jotacomputing/counterbridge/internal/staticerr"
)

// checkRisk implements check_risk. For an Open it verifies
// the resulting position and available funds; for a Close it verifies
// the requested bucket has enough volume. A non-nil error is the
// rejection reason and always wraps a staticerr sentinel so callers can
// classify the rejection with errors.Is instead of matching text.
func (s *Simulator) checkRisk(req broker.OrderRequest) error {
	if s.account.dailyLossBreached(s.cfg.MaxDailyLoss) {
		return fmt.Errorf("daily loss limit breached: %w", staticerr.ErrDailyLossBreached)
	}

	if req.Offset == broker.Open {
		current := s.positions.snapshot(req.Symbol, req.Direction)
		after := current.Volume + req.Volume
		if after > s.cfg.MaxPositionPerSymbol {
			return fmt.Errorf("position after fill %d exceeds max_position_per_symbol %d: %w", after, s.cfg.MaxPositionPerSymbol, staticerr.ErrOverPosition)
		}
		margin := req.Price * float64(req.Volume) * s.cfg.MarginRate
		commission := req.Price * float64(req.Volume) * s.cfg.CommissionRate
		acct := s.account.snapshot()
		if margin+commission > acct.Available {
			return fmt.Errorf("insufficient available funds for margin+commission %.2f: %w", margin+commission, staticerr.ErrInsufficientFunds)
		}
		return nil
	}

	closeDir := req.Direction.Opposite()
	current := s.positions.snapshot(req.Symbol, closeDir)
	var available int32
	switch req.Offset {
	case broker.CloseToday:
		available = current.TodayVolume
	case broker.CloseYesterday:
		available = current.YesterdayVolume
	default:
		available = current.Volume
	}
	if req.Volume > available {
		return fmt.Errorf("insufficient position for close: requested %d, available %d: %w", req.Volume, available, staticerr.ErrInsufficientBucket)
	}
	return nil
}
