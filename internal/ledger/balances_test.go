package ledger

import (
	"testing"

	"github.com/splitbook/splitbook/internal/models"
)

func entry(debtor, creditor string, cents int64) *models.DebtEntry {
	return &models.DebtEntry{
		DebtorID:   debtor,
		CreditorID: creditor,
		Amount:     usd(cents),
	}
}

func TestNetBalances(t *testing.T) {
	t.Run("empty input yields empty mapping", func(t *testing.T) {
		balances, err := NetBalances(nil)
		if err != nil {
			t.Fatalf("NetBalances failed: %v", err)
		}
		if len(balances) != 0 {
			t.Errorf("expected no balances, got %d", len(balances))
		}
	})

	t.Run("debts net across entries within a pair", func(t *testing.T) {
		// b owes a 1000, then a owes b 50: net b owes a 950.
		entries := []*models.DebtEntry{
			entry("b", "a", 1000),
			entry("a", "b", 50),
		}
		balances, err := NetBalances(entries)
		if err != nil {
			t.Fatalf("NetBalances failed: %v", err)
		}
		if len(balances) != 1 {
			t.Fatalf("expected 1 balance, got %d", len(balances))
		}
		got := balances[0]
		if got.A != "a" || got.B != "b" {
			t.Errorf("pair = (%s,%s), want (a,b)", got.A, got.B)
		}
		if got.Amount.Amount != 950 {
			t.Errorf("net = %d, want 950 (b owes a)", got.Amount.Amount)
		}
	})

	t.Run("zero net pairs omitted", func(t *testing.T) {
		entries := []*models.DebtEntry{
			entry("b", "a", 500),
			entry("a", "b", 500),
		}
		balances, err := NetBalances(entries)
		if err != nil {
			t.Fatalf("NetBalances failed: %v", err)
		}
		if len(balances) != 0 {
			t.Errorf("expected zero pair omitted, got %v", balances)
		}
	})

	t.Run("settled and void entries skipped", func(t *testing.T) {
		settled := entry("b", "a", 1000)
		settled.Settled = true
		void := entry("c", "a", 700)
		void.Void = true
		entries := []*models.DebtEntry{settled, void, entry("b", "a", 200)}

		balances, err := NetBalances(entries)
		if err != nil {
			t.Fatalf("NetBalances failed: %v", err)
		}
		if len(balances) != 1 || balances[0].Amount.Amount != 200 {
			t.Errorf("balances = %v, want single (a,b)=200", balances)
		}
	})

	t.Run("sign convention follows canonical pair order", func(t *testing.T) {
		// z owes a: a is the smaller ID, positive means B (z) owes A (a).
		balances, err := NetBalances([]*models.DebtEntry{entry("z", "a", 300)})
		if err != nil {
			t.Fatalf("NetBalances failed: %v", err)
		}
		if balances[0].Amount.Amount != 300 {
			t.Errorf("net = %d, want +300", balances[0].Amount.Amount)
		}

		// a owes z: same pair, opposite sign.
		balances, err = NetBalances([]*models.DebtEntry{entry("a", "z", 300)})
		if err != nil {
			t.Fatalf("NetBalances failed: %v", err)
		}
		if balances[0].Amount.Amount != -300 {
			t.Errorf("net = %d, want -300", balances[0].Amount.Amount)
		}
	})
}

func TestNetBalancesOrderIndependence(t *testing.T) {
	e1 := entry("b", "a", 1000)
	e2 := entry("a", "b", 50)
	e3 := entry("c", "a", 1000)

	permutations := [][]*models.DebtEntry{
		{e1, e2, e3},
		{e1, e3, e2},
		{e2, e1, e3},
		{e2, e3, e1},
		{e3, e1, e2},
		{e3, e2, e1},
	}

	want, err := NetBalances(permutations[0])
	if err != nil {
		t.Fatalf("NetBalances failed: %v", err)
	}
	for i, perm := range permutations[1:] {
		got, err := NetBalances(perm)
		if err != nil {
			t.Fatalf("permutation %d failed: %v", i+1, err)
		}
		if len(got) != len(want) {
			t.Fatalf("permutation %d: %d balances, want %d", i+1, len(got), len(want))
		}
		for j := range want {
			if got[j] != want[j] {
				t.Errorf("permutation %d: balance %d = %+v, want %+v", i+1, j, got[j], want[j])
			}
		}
	}
}

// The scenario from the group ledger walkthrough: A pays 3000 split equally
// among A, B, C; then B pays 100 split between A and B; then the (B owes A,
// 1000) entry is settled. Netting must span all entries between a pair.
func TestNetBalancesScenario(t *testing.T) {
	bOwesA := entry("B", "A", 1000)
	cOwesA := entry("C", "A", 1000)

	balances, err := NetBalances([]*models.DebtEntry{bOwesA, cOwesA})
	if err != nil {
		t.Fatalf("NetBalances failed: %v", err)
	}
	if len(balances) != 2 {
		t.Fatalf("expected 2 balances, got %d", len(balances))
	}
	if balances[0].Pair != NewPair("A", "B") || balances[0].Amount.Amount != 1000 {
		t.Errorf("(A,B) = %+v, want B owes A 1000", balances[0])
	}
	if balances[1].Pair != NewPair("A", "C") || balances[1].Amount.Amount != 1000 {
		t.Errorf("(A,C) = %+v, want C owes A 1000", balances[1])
	}

	// B pays 100 split between A and B; A's share is 50.
	aOwesB := entry("A", "B", 50)
	balances, err = NetBalances([]*models.DebtEntry{bOwesA, cOwesA, aOwesB})
	if err != nil {
		t.Fatalf("NetBalances failed: %v", err)
	}
	if balances[0].Amount.Amount != 950 {
		t.Errorf("(A,B) net = %d, want 950", balances[0].Amount.Amount)
	}

	// Settling the 1000 entry leaves only the 50 running the other way.
	bOwesA.Settled = true
	balances, err = NetBalances([]*models.DebtEntry{bOwesA, cOwesA, aOwesB})
	if err != nil {
		t.Fatalf("NetBalances failed: %v", err)
	}
	if balances[0].Pair != NewPair("A", "B") || balances[0].Amount.Amount != -50 {
		t.Errorf("(A,B) net = %d, want -50 (A owes B 50)", balances[0].Amount.Amount)
	}
}

func TestSimplifyDebts(t *testing.T) {
	t.Run("chain collapses to direct transfers", func(t *testing.T) {
		// b owes a 1000, c owes b 1000: c should just pay a.
		entries := []*models.DebtEntry{
			entry("b", "a", 1000),
			entry("c", "b", 1000),
		}
		transfers, err := SimplifyDebts(entries)
		if err != nil {
			t.Fatalf("SimplifyDebts failed: %v", err)
		}
		if len(transfers) != 1 {
			t.Fatalf("expected 1 transfer, got %d: %v", len(transfers), transfers)
		}
		got := transfers[0]
		if got.FromID != "c" || got.ToID != "a" || got.Amount.Amount != 1000 {
			t.Errorf("transfer = %+v, want c pays a 1000", got)
		}
	})

	t.Run("transfers clear every net position", func(t *testing.T) {
		entries := []*models.DebtEntry{
			entry("b", "a", 700),
			entry("c", "a", 300),
			entry("c", "b", 200),
			entry("a", "c", 100),
		}
		transfers, err := SimplifyDebts(entries)
		if err != nil {
			t.Fatalf("SimplifyDebts failed: %v", err)
		}

		net := make(map[string]int64)
		for _, e := range entries {
			net[e.CreditorID] += e.Amount.Amount
			net[e.DebtorID] -= e.Amount.Amount
		}
		for _, tr := range transfers {
			net[tr.FromID] += tr.Amount.Amount
			net[tr.ToID] -= tr.Amount.Amount
		}
		for member, balance := range net {
			if balance != 0 {
				t.Errorf("member %s left with net %d after transfers", member, balance)
			}
		}
	})

	t.Run("no unsettled entries yields no transfers", func(t *testing.T) {
		settled := entry("b", "a", 500)
		settled.Settled = true
		transfers, err := SimplifyDebts([]*models.DebtEntry{settled})
		if err != nil {
			t.Fatalf("SimplifyDebts failed: %v", err)
		}
		if len(transfers) != 0 {
			t.Errorf("expected no transfers, got %v", transfers)
		}
	})
}
