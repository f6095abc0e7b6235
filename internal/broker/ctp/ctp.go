// Package ctp is the CTP (China's futures exchange gateway SDK) plugin
// adapter. The real CTP SDK is a vendor-distributed C++ library reached
// through cgo bindings outside this repository's build; this stub
// satisfies broker.Plugin so the bridge can be built and tested without
// it, and fails clearly if anyone actually tries to trade through it.
package ctp

import (
	"errors"
	"fmt"

	"jotacomputing/counterbridge/internal/broker"
)

var errNotBuilt = errors.New("ctp: plugin not built with CTP SDK support")

// Plugin is a non-functional placeholder for the real CTP adapter. Its
// Initialize succeeds (so config validation and broker-spec parsing can
// be tested), but Login always fails, matching the rest of the bridge's
// treatment of a broker that never becomes available.
type Plugin struct {
	configPath string
}

var _ broker.Plugin = (*Plugin)(nil)

func New() *Plugin { return &Plugin{} }

func (p *Plugin) Name() string { return "ctp" }

func (p *Plugin) Initialize(configPath string) error {
	p.configPath = configPath
	return nil
}

func (p *Plugin) Login() error { return errNotBuilt }
func (p *Plugin) Logout() error { return nil }

func (p *Plugin) IsConnected() bool { return false }
func (p *Plugin) IsLoggedIn() bool  { return false }

func (p *Plugin) SendOrder(req broker.OrderRequest) (string, error) {
	return "", fmt.Errorf("ctp: %w", errNotBuilt)
}

func (p *Plugin) CancelOrder(orderID string) error {
	return fmt.Errorf("ctp: %w", errNotBuilt)
}

func (p *Plugin) QueryAccount() (broker.Account, error) {
	return broker.Account{}, fmt.Errorf("ctp: %w", errNotBuilt)
}

func (p *Plugin) QueryPositions() ([]broker.Position, error) {
	return nil, fmt.Errorf("ctp: %w", errNotBuilt)
}

func (p *Plugin) QueryOrders() ([]broker.Order, error) {
	return nil, fmt.Errorf("ctp: %w", errNotBuilt)
}

func (p *Plugin) QueryTrades() ([]broker.Trade, error) {
	return nil, fmt.Errorf("ctp: %w", errNotBuilt)
}

func (p *Plugin) GetOrder(orderID string) (broker.Order, bool) {
	return broker.Order{}, false
}

func (p *Plugin) RegisterOrderCallback(fn broker.OrderCallback) {}
func (p *Plugin) RegisterTradeCallback(fn broker.TradeCallback) {}
func (p *Plugin) RegisterErrorCallback(fn broker.ErrorCallback) {}
