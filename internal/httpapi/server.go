// Package httpapi exposes the ledger over a JSON HTTP API.
package httpapi

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/splitbook/splitbook/internal/auth"
	"github.com/splitbook/splitbook/internal/middleware"
	"github.com/splitbook/splitbook/internal/service"
)

// Server wires the services to HTTP routes.
type Server struct {
	authService       *service.AuthService
	groupService      *service.GroupService
	ledgerService     *service.LedgerService
	settlementService *service.SettlementService
	jwtManager        *auth.JWTManager

	// defaultCurrency applies when a request omits the currency field.
	defaultCurrency string
}

// NewServer creates a Server.
func NewServer(
	authService *service.AuthService,
	groupService *service.GroupService,
	ledgerService *service.LedgerService,
	settlementService *service.SettlementService,
	jwtManager *auth.JWTManager,
	defaultCurrency string,
) *Server {
	return &Server{
		authService:       authService,
		groupService:      groupService,
		ledgerService:     ledgerService,
		settlementService: settlementService,
		jwtManager:        jwtManager,
		defaultCurrency:   defaultCurrency,
	}
}

// Handler builds the full route table with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /api/v1/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/v1/auth/login", s.handleLogin)

	authed := middleware.RequireAuth(s.jwtManager)
	protect := func(h http.HandlerFunc) http.Handler { return authed(h) }

	mux.Handle("GET /api/v1/auth/me", protect(s.handleMe))
	mux.Handle("PATCH /api/v1/auth/me", protect(s.handleUpdateProfile))

	mux.Handle("POST /api/v1/groups", protect(s.handleCreateGroup))
	mux.Handle("GET /api/v1/groups", protect(s.handleListGroups))
	mux.Handle("GET /api/v1/groups/{id}", protect(s.handleGetGroup))

	mux.Handle("POST /api/v1/groups/{id}/invitations", protect(s.handleInvite))
	mux.Handle("GET /api/v1/invitations", protect(s.handleListInvitations))
	mux.Handle("POST /api/v1/invitations/{id}/respond", protect(s.handleRespondInvitation))

	mux.Handle("POST /api/v1/groups/{id}/expenses", protect(s.handleRecordExpense))
	mux.Handle("GET /api/v1/groups/{id}/expenses", protect(s.handleListExpenses))
	mux.Handle("GET /api/v1/expenses/{id}", protect(s.handleGetExpense))
	mux.Handle("DELETE /api/v1/expenses/{id}", protect(s.handleVoidExpense))

	mux.Handle("GET /api/v1/groups/{id}/entries", protect(s.handleListEntries))
	mux.Handle("GET /api/v1/groups/{id}/balances", protect(s.handleBalances))
	mux.Handle("GET /api/v1/groups/{id}/settle-up", protect(s.handleSettleUp))

	mux.Handle("POST /api/v1/entries/{id}/settle", protect(s.handleSettleEntry))
	mux.Handle("POST /api/v1/groups/{id}/settlements", protect(s.handleSettleBetween))

	var handler http.Handler = mux
	handler = middleware.Metrics(handler)
	handler = middleware.Logging(handler)
	handler = middleware.CORS(handler)
	return handler
}
