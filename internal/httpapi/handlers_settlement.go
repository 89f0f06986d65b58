package httpapi

import (
	"net/http"

	"github.com/splitbook/splitbook/internal/middleware"
	"github.com/splitbook/splitbook/internal/models"
	"github.com/splitbook/splitbook/internal/service"
)

type entryResponse struct {
	ID         string        `json:"id"`
	ExpenseID  string        `json:"expense_id"`
	GroupID    string        `json:"group_id"`
	DebtorID   string        `json:"debtor_id"`
	CreditorID string        `json:"creditor_id"`
	Amount     moneyResponse `json:"amount"`
	Settled    bool          `json:"settled"`
	SettledAt  int64         `json:"settled_at,omitempty"`
}

func toEntryResponse(e *models.DebtEntry) entryResponse {
	return entryResponse{
		ID:         e.ID,
		ExpenseID:  e.ExpenseID,
		GroupID:    e.GroupID,
		DebtorID:   e.DebtorID,
		CreditorID: e.CreditorID,
		Amount:     toMoneyResponse(e.Amount),
		Settled:    e.Settled,
		SettledAt:  e.SettledAt,
	}
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := s.ledgerService.ListUnsettledEntries(r.Context(), middleware.GetUserID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, toEntryResponse(e))
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": resp})
}

type settleResponse struct {
	Entry entryResponse `json:"entry"`
	// AlreadySettled is true when the entry was settled before this request,
	// including when a concurrent request won the race.
	AlreadySettled bool `json:"already_settled"`
}

func toSettleResponse(res *service.SettleResult) settleResponse {
	return settleResponse{Entry: toEntryResponse(res.Entry), AlreadySettled: res.AlreadySettled}
}

func (s *Server) handleSettleEntry(w http.ResponseWriter, r *http.Request) {
	res, err := s.settlementService.Settle(r.Context(), middleware.GetUserID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSettleResponse(res))
}

type settleBetweenRequest struct {
	// MemberID is the other party; every open entry between the caller and
	// this member is settled, in both directions.
	MemberID string `json:"member_id"`
}

func (s *Server) handleSettleBetween(w http.ResponseWriter, r *http.Request) {
	var req settleBetweenRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	results, err := s.settlementService.SettleBetween(r.Context(), middleware.GetUserID(r.Context()), r.PathValue("id"), req.MemberID)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]settleResponse, 0, len(results))
	for _, res := range results {
		resp = append(resp, toSettleResponse(res))
	}
	writeJSON(w, http.StatusOK, map[string]any{"settled": resp})
}
