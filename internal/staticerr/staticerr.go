// Package staticerr collects sentinel errors shared across the bridge so
// callers can distinguish failure kinds with errors.Is instead of string
// matching.
package staticerr

import "errors"

var (
	ErrNoBrokerForSymbol  = errors.New("NoBrokerForSymbol")
	ErrBrokerNotLoggedIn  = errors.New("BrokerNotLoggedIn")
	ErrOrderNotFound      = errors.New("OrderNotFound")
	ErrInsufficientBucket = errors.New("InsufficientPositionBucket")
	ErrDailyLossBreached  = errors.New("DailyLossBreached")
	ErrOverPosition       = errors.New("OverPositionLimit")
	ErrInsufficientFunds  = errors.New("InsufficientFunds")
	ErrInvalidRequest     = errors.New("InvalidRequest")
	ErrWireLayoutMismatch = errors.New("WireLayoutMismatch")
	ErrLoginTimeout       = errors.New("LoginTimeout")
	ErrQueueAttachFailed  = errors.New("QueueAttachFailed")
)
