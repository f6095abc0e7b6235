package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"jotacomputing/counterbridge/internal/ledger"
	"jotacomputing/counterbridge/internal/staticerr"
)

func (s *Server) enableBroker(c echo.Context) error {
	name := c.Param("name")
	if err := s.brokers.Enable(name); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]string{"broker": name, "status": "enabled"})
}

func (s *Server) disableBroker(c echo.Context) error {
	name := c.Param("name")
	if err := s.brokers.Disable(name); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]string{"broker": name, "status": "disabled"})
}

// adjustRequest is the body for POST /admin/ledger/:symbol/adjust. Each
// field is a signed delta applied to the matching bucket.
type adjustRequest struct {
	ONLong     int64 `json:"on_long"`
	TodayLong  int64 `json:"today_long"`
	ONShort    int64 `json:"on_short"`
	TodayShort int64 `json:"today_short"`
}

func (s *Server) adjustLedger(c echo.Context) error {
	symbol := c.Param("symbol")
	var req adjustRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": staticerr.ErrInvalidRequest.Error()})
	}

	entry := s.ledger.Adjust(symbol, ledger.AdjustDelta{
		ONLong:     req.ONLong,
		TodayLong:  req.TodayLong,
		ONShort:    req.ONShort,
		TodayShort: req.TodayShort,
	})

	return c.JSON(http.StatusOK, map[string]interface{}{
		"symbol":      symbol,
		"on_long":     entry.ONLong,
		"today_long":  entry.TodayLong,
		"on_short":    entry.ONShort,
		"today_short": entry.TodayShort,
	})
}
