// Package ledger implements the pure computation core: splitting an expense
// total into per-member shares and aggregating unsettled debt entries into net
// pairwise balances. All arithmetic is integer minor units; floating point is
// never used because it cannot guarantee shares sum exactly to the total.
package ledger

import (
	"fmt"

	"github.com/splitbook/splitbook/internal/models"
)

// Policy selects how an expense total is divided among participants.
type Policy string

const (
	// PolicyEqual divides the total evenly, distributing any remainder one
	// minor unit at a time to the first participants in supplied order.
	PolicyEqual Policy = "equal"

	// PolicyCustom uses caller-supplied per-member shares, which must sum
	// exactly to the total.
	PolicyCustom Policy = "custom"
)

// Share is one participant's portion of an expense.
type Share struct {
	MemberID string
	Amount   models.Money
}

// Split computes per-member shares for an expense. The result preserves
// participant order and the share amounts always sum exactly to total.
// For PolicyCustom the custom slice supplies the shares; it is ignored
// otherwise. Split is pure: it never touches storage.
func Split(total models.Money, participants []string, policy Policy, custom []Share) ([]Share, error) {
	if !total.IsPositive() {
		return nil, models.ErrInvalidAmount
	}
	if len(participants) == 0 {
		return nil, models.ErrEmptyParticipants
	}
	seen := make(map[string]bool, len(participants))
	for _, p := range participants {
		if seen[p] {
			return nil, fmt.Errorf("%w: %s", models.ErrDuplicateParticipant, p)
		}
		seen[p] = true
	}

	switch policy {
	case PolicyEqual:
		return equalShares(total, participants), nil
	case PolicyCustom:
		return customShares(total, participants, custom)
	default:
		return nil, fmt.Errorf("unknown split policy %q", policy)
	}
}

// equalShares divides total by len(participants) in minor units. The integer
// remainder is handed out one unit at a time, starting from the first
// participant, so the distribution is deterministic for a given input order.
func equalShares(total models.Money, participants []string) []Share {
	n := int64(len(participants))
	base := total.Amount / n
	remainder := total.Amount % n

	shares := make([]Share, len(participants))
	for i, p := range participants {
		amount := base
		if int64(i) < remainder {
			amount++
		}
		shares[i] = Share{MemberID: p, Amount: models.NewMoney(amount, total.Currency)}
	}
	return shares
}

// customShares validates caller-supplied shares: every share must belong to a
// listed participant, carry the total's currency, be non-negative, and the
// amounts must sum exactly to the total. The result is reordered to match
// participant order; participants without an explicit share get zero.
func customShares(total models.Money, participants []string, custom []Share) ([]Share, error) {
	byMember := make(map[string]models.Money, len(custom))
	var sum int64
	for _, sh := range custom {
		if !sh.Amount.SameCurrency(total) {
			return nil, fmt.Errorf("%w: share for %s is %s, total is %s",
				models.ErrCurrencyMismatch, sh.MemberID, sh.Amount.Currency, total.Currency)
		}
		if sh.Amount.Amount < 0 {
			return nil, fmt.Errorf("%w: negative share for %s", models.ErrInvalidAmount, sh.MemberID)
		}
		if _, dup := byMember[sh.MemberID]; dup {
			return nil, fmt.Errorf("%w: %s", models.ErrDuplicateParticipant, sh.MemberID)
		}
		byMember[sh.MemberID] = sh.Amount
		sum += sh.Amount.Amount
	}

	for member := range byMember {
		found := false
		for _, p := range participants {
			if p == member {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: share for non-participant %s", models.ErrSplitMismatch, member)
		}
	}
	if sum != total.Amount {
		return nil, fmt.Errorf("%w: shares sum to %d, total is %d", models.ErrSplitMismatch, sum, total.Amount)
	}

	shares := make([]Share, len(participants))
	for i, p := range participants {
		amount, ok := byMember[p]
		if !ok {
			amount = models.NewMoney(0, total.Currency)
		}
		shares[i] = Share{MemberID: p, Amount: amount}
	}
	return shares, nil
}
