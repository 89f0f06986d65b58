package ledger

import (
	"fmt"
	"sort"

	"github.com/splitbook/splitbook/internal/models"
)

// Pair is an unordered pair of member IDs in canonical order: A is always the
// lexicographically smaller ID. The canonical order fixes the sign convention
// for net balances.
type Pair struct {
	A string
	B string
}

// NewPair returns the canonical pair for two member IDs.
func NewPair(x, y string) Pair {
	if x < y {
		return Pair{A: x, B: y}
	}
	return Pair{A: y, B: x}
}

// NetBalance is the aggregated debt between a pair of members across all
// unsettled entries. Amount is signed: positive means B owes A, negative
// means A owes B. Pairs netting to exactly zero are omitted from results.
type NetBalance struct {
	Pair
	Amount models.Money
}

// NetBalances folds unsettled debt entries into net pairwise balances.
// Settled and void entries are skipped. Integer addition is commutative, so
// the result is identical for any retrieval order of the entries. An empty
// input yields an empty result, not an error.
func NetBalances(entries []*models.DebtEntry) ([]NetBalance, error) {
	totals := make(map[Pair]int64)
	currency := ""

	for _, e := range entries {
		if e.Settled || e.Void {
			continue
		}
		if e.DebtorID == e.CreditorID {
			return nil, fmt.Errorf("debt entry %s: debtor equals creditor", e.ID)
		}
		if currency == "" {
			currency = e.Amount.Currency
		} else if e.Amount.Currency != currency {
			return nil, fmt.Errorf("%w: %s vs %s", models.ErrCurrencyMismatch, e.Amount.Currency, currency)
		}

		pair := NewPair(e.DebtorID, e.CreditorID)
		if e.CreditorID == pair.A {
			// B owes A
			totals[pair] += e.Amount.Amount
		} else {
			totals[pair] -= e.Amount.Amount
		}
	}

	balances := make([]NetBalance, 0, len(totals))
	for pair, amount := range totals {
		if amount == 0 {
			continue
		}
		balances = append(balances, NetBalance{Pair: pair, Amount: models.NewMoney(amount, currency)})
	}
	sort.Slice(balances, func(i, j int) bool {
		if balances[i].A != balances[j].A {
			return balances[i].A < balances[j].A
		}
		return balances[i].B < balances[j].B
	})
	return balances, nil
}

// Transfer is a suggested payment from one member to another.
type Transfer struct {
	FromID string
	ToID   string
	Amount models.Money
}

// SimplifyDebts reduces unsettled entries to a small set of transfers that
// would clear every member's net position.
//
// Algorithm: compute each member's net position (owed minus owing), then
// greedily match debtors against creditors. Members are processed in ID order
// so the output is deterministic. The result is advisory only; it never
// writes entries.
func SimplifyDebts(entries []*models.DebtEntry) ([]Transfer, error) {
	net := make(map[string]int64)
	currency := ""

	for _, e := range entries {
		if e.Settled || e.Void {
			continue
		}
		if currency == "" {
			currency = e.Amount.Currency
		} else if e.Amount.Currency != currency {
			return nil, fmt.Errorf("%w: %s vs %s", models.ErrCurrencyMismatch, e.Amount.Currency, currency)
		}
		net[e.CreditorID] += e.Amount.Amount
		net[e.DebtorID] -= e.Amount.Amount
	}

	var debtors, creditors []string
	for member, balance := range net {
		switch {
		case balance < 0:
			debtors = append(debtors, member)
		case balance > 0:
			creditors = append(creditors, member)
		}
	}
	sort.Strings(debtors)
	sort.Strings(creditors)

	var transfers []Transfer
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		owes := -net[debtors[i]]
		owed := net[creditors[j]]

		amount := owes
		if owed < amount {
			amount = owed
		}
		transfers = append(transfers, Transfer{
			FromID: debtors[i],
			ToID:   creditors[j],
			Amount: models.NewMoney(amount, currency),
		})

		net[debtors[i]] += amount
		net[creditors[j]] -= amount
		if net[debtors[i]] == 0 {
			i++
		}
		if net[creditors[j]] == 0 {
			j++
		}
	}
	return transfers, nil
}
