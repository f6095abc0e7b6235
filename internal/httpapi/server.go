// Package httpapi exposes a small HTTP surface alongside the shared
// memory order path: an unauthenticated health check and an oauth2-gated
// admin surface for broker enable/disable and manual ledger correction.
// None of it touches the ledger or broker registry except through their
// own public, lock-covered operations.
package httpapi

import (
	"net/http"

	echoserver "github.com/dasjott/oauth2-echo-server"
	"github.com/go-oauth2/oauth2/v4/manage"
	"github.com/go-oauth2/oauth2/v4/server"
	"github.com/go-oauth2/oauth2/v4/store"
	"github.com/labstack/echo/v4"

	"jotacomputing/counterbridge/internal/ledger"
)

// BrokerRegistry is the subset of the bridge's broker control surface the
// admin API drives.
type BrokerRegistry interface {
	Enable(name string) error
	Disable(name string) error
}

// Server bundles the echo instance with the oauth2 authorization server
// that gates /admin.
type Server struct {
	Echo *echo.Echo

	oauthManager *manage.Manager
	oauthServer  *server.Server

	brokers BrokerRegistry
	ledger  *ledger.Ledger
}

// New wires up routes and an in-memory oauth2 client/token store. Real
// deployments would swap the memory stores for persistent ones; nothing
// in the admin surface depends on which store backs them (spec.md
// Non-goals: no cross-process auth on the core dispatch path, so the
// admin surface's own auth store has no bearing on order routing).
func New(brokers BrokerRegistry, lg *ledger.Ledger, adminClientID, adminClientSecret string) *Server {
	manager := manage.NewDefaultManager()
	manager.MustTokenStorage(store.NewMemoryTokenStore())

	clientStore := store.NewClientStore()
	clientStore.Set(adminClientID, &fixedClient{id: adminClientID, secret: adminClientSecret})
	manager.MapClientStorage(clientStore)

	srv := server.NewDefaultServer(manager)

	s := &Server{
		Echo:         echo.New(),
		oauthManager: manager,
		oauthServer:  srv,
		brokers:      brokers,
		ledger:       lg,
	}

	s.Echo.GET("/health", s.health)
	s.Echo.POST("/oauth/token", s.issueToken)

	admin := s.Echo.Group("/admin", echoserver.New(srv))
	admin.POST("/brokers/:name/enable", s.enableBroker)
	admin.POST("/brokers/:name/disable", s.disableBroker)
	admin.POST("/ledger/:symbol/adjust", s.adjustLedger)

	return s
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok", "mode": "mwmr"})
}

func (s *Server) issueToken(c echo.Context) error {
	return s.oauthServer.HandleTokenRequest(c.Response(), c.Request())
}
