package httpapi

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/splitbook/splitbook/internal/ledger"
	"github.com/splitbook/splitbook/internal/middleware"
	"github.com/splitbook/splitbook/internal/models"
)

// moneyResponse renders an amount as a decimal string plus currency, e.g.
// {"amount": "12.34", "currency": "USD"}. Clients never see minor units.
type moneyResponse struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

func toMoneyResponse(m models.Money) moneyResponse {
	return moneyResponse{
		Amount:   decimal.New(m.Amount, -2).StringFixed(2),
		Currency: m.Currency,
	}
}

type recordExpenseRequest struct {
	Description  string   `json:"description"`
	Amount       string   `json:"amount"`
	Currency     string   `json:"currency"`
	PayerID      string   `json:"payer_id"`
	Participants []string `json:"participants"`
	// Split is "equal" (default) or "custom".
	Split string `json:"split"`
	// Shares maps member ID to amount string; required for custom splits.
	Shares map[string]string `json:"shares"`
}

type expenseResponse struct {
	ID           string        `json:"id"`
	GroupID      string        `json:"group_id"`
	Description  string        `json:"description"`
	Amount       moneyResponse `json:"amount"`
	PayerID      string        `json:"payer_id"`
	Participants []string      `json:"participants"`
	Split        string        `json:"split"`
	CreatedAt    int64         `json:"created_at"`
	VoidedAt     int64         `json:"voided_at,omitempty"`
}

func toExpenseResponse(e *models.Expense) expenseResponse {
	return expenseResponse{
		ID:           e.ID,
		GroupID:      e.GroupID,
		Description:  e.Description,
		Amount:       toMoneyResponse(e.Amount),
		PayerID:      e.PayerID,
		Participants: e.Participants,
		Split:        e.SplitPolicy,
		CreatedAt:    e.CreatedAt,
		VoidedAt:     e.VoidedAt,
	}
}

func (s *Server) handleRecordExpense(w http.ResponseWriter, r *http.Request) {
	var req recordExpenseRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	currency := req.Currency
	if currency == "" {
		currency = s.defaultCurrency
	}
	total, err := models.ParseMoney(req.Amount, currency)
	if err != nil {
		writeError(w, err)
		return
	}

	policy := ledger.PolicyEqual
	if req.Split != "" {
		policy = ledger.Policy(req.Split)
	}

	var custom []ledger.Share
	for member, amount := range req.Shares {
		share, err := models.ParseMoney(amount, currency)
		if err != nil {
			writeError(w, err)
			return
		}
		custom = append(custom, ledger.Share{MemberID: member, Amount: share})
	}

	expense, err := s.ledgerService.RecordExpense(
		r.Context(),
		middleware.GetUserID(r.Context()),
		r.PathValue("id"),
		req.Description,
		total,
		req.PayerID,
		req.Participants,
		policy,
		custom,
	)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toExpenseResponse(expense))
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := s.ledgerService.ListExpenses(r.Context(), middleware.GetUserID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]expenseResponse, 0, len(expenses))
	for _, e := range expenses {
		resp = append(resp, toExpenseResponse(e))
	}
	writeJSON(w, http.StatusOK, map[string]any{"expenses": resp})
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	expense, err := s.ledgerService.GetExpense(r.Context(), middleware.GetUserID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toExpenseResponse(expense))
}

func (s *Server) handleVoidExpense(w http.ResponseWriter, r *http.Request) {
	err := s.ledgerService.VoidExpense(r.Context(), middleware.GetUserID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type balanceResponse struct {
	// MemberA is the lexicographically smaller member ID of the pair.
	MemberA string        `json:"member_a"`
	MemberB string        `json:"member_b"`
	Amount  moneyResponse `json:"amount"`
	// Direction is "b_owes_a" or "a_owes_b" depending on the sign of the
	// net amount. The amount itself is always rendered positive.
	Direction string `json:"direction"`
}

func toBalanceResponse(b ledger.NetBalance) balanceResponse {
	amount := b.Amount
	direction := "b_owes_a"
	if amount.Amount < 0 {
		amount = amount.Neg()
		direction = "a_owes_b"
	}
	return balanceResponse{
		MemberA:   b.A,
		MemberB:   b.B,
		Amount:    toMoneyResponse(amount),
		Direction: direction,
	}
}

func (s *Server) handleBalances(w http.ResponseWriter, r *http.Request) {
	balances, err := s.ledgerService.NetBalances(r.Context(), middleware.GetUserID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]balanceResponse, 0, len(balances))
	for _, b := range balances {
		resp = append(resp, toBalanceResponse(b))
	}
	writeJSON(w, http.StatusOK, map[string]any{"balances": resp})
}

type transferResponse struct {
	FromID string        `json:"from_id"`
	ToID   string        `json:"to_id"`
	Amount moneyResponse `json:"amount"`
}

func (s *Server) handleSettleUp(w http.ResponseWriter, r *http.Request) {
	transfers, err := s.ledgerService.SettleUpSuggestions(r.Context(), middleware.GetUserID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]transferResponse, 0, len(transfers))
	for _, t := range transfers {
		resp = append(resp, transferResponse{
			FromID: t.FromID,
			ToID:   t.ToID,
			Amount: toMoneyResponse(t.Amount),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"transfers": resp})
}
