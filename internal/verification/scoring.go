package verification

import (
	dErrors "veridion/pkg/domain-errors"
)

// Tier labels for on-chain activity.
const (
	TierExpertTrader   = "Expert Trader"
	TierActiveTrader   = "Active Trader"
	TierRegularUser    = "Regular User"
	TierFrequentUser   = "Frequent User"
	TierOccasionalUser = "Occasional User"
	TierNewUser        = "New User"
	TierNoActivity     = "No Activity"
)

// ActivityTier is one row of the transaction threshold table.
type ActivityTier struct {
	MinTransactions int    `json:"min_transactions"`
	Points          int    `json:"points"`
	Label           string `json:"label"`
}

// activityTiers is ordered from the highest threshold down; the first row
// whose minimum is met wins. Points and labels both come from here.
var activityTiers = []ActivityTier{
	{MinTransactions: 100, Points: 50, Label: TierExpertTrader},
	{MinTransactions: 50, Points: 25, Label: TierActiveTrader},
	{MinTransactions: 25, Points: 15, Label: TierRegularUser},
	{MinTransactions: 10, Points: 10, Label: TierFrequentUser},
	{MinTransactions: 5, Points: 5, Label: TierOccasionalUser},
	{MinTransactions: 1, Points: 1, Label: TierNewUser},
}

// ActivityTiers returns a copy of the threshold table, highest first.
func ActivityTiers() []ActivityTier {
	out := make([]ActivityTier, len(activityTiers))
	copy(out, activityTiers)
	return out
}

func tierFor(count int) (ActivityTier, error) {
	if count < 0 {
		return ActivityTier{}, dErrors.New(dErrors.CodeInvalidInput, "transaction count must not be negative")
	}
	for _, t := range activityTiers {
		if count >= t.MinTransactions {
			return t, nil
		}
	}
	return ActivityTier{Label: TierNoActivity}, nil
}

// PointsForTransactionCount maps a transaction count to blockchain points.
func PointsForTransactionCount(count int) (int, error) {
	t, err := tierFor(count)
	if err != nil {
		return 0, err
	}
	return t.Points, nil
}

// TierLabelForTransactionCount maps a transaction count to its tier label.
func TierLabelForTransactionCount(count int) (string, error) {
	t, err := tierFor(count)
	if err != nil {
		return "", err
	}
	return t.Label, nil
}

// FixedPointsForSocialMethod returns the flat award for a social method.
func FixedPointsForSocialMethod(methodID string) (int, error) {
	m, ok := catalog[methodID]
	if !ok || m.Category != CategorySocial {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "unknown social method: "+methodID)
	}
	return m.BasePoints, nil
}
