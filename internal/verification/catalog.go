package verification

import (
	"sort"

	dErrors "veridion/pkg/domain-errors"
)

// Method ids known to the catalog.
const (
	MethodGoogle   = "google"
	MethodDiscord  = "discord"
	MethodGitHub   = "github"
	MethodLinkedIn = "linkedin"

	MethodStellarTransactions = "stellar-transactions"

	MethodGovernmentID      = "government-id"
	MethodBinance           = "binance"
	MethodPhoneVerification = "phone-verification"
	MethodBiometrics        = "biometrics"
	MethodProofCleanHands   = "proof-clean-hands"
)

const (
	socialPoints   = 6
	physicalPoints = 1000
)

var catalog = map[string]Method{
	MethodGoogle:   {ID: MethodGoogle, Category: CategorySocial, BasePoints: socialPoints, MaxPoints: socialPoints, Title: "Google", Description: "Verify your Google account ownership"},
	MethodDiscord:  {ID: MethodDiscord, Category: CategorySocial, BasePoints: socialPoints, MaxPoints: socialPoints, Title: "Discord", Description: "Verify that you own a Discord account"},
	MethodGitHub:   {ID: MethodGitHub, Category: CategorySocial, BasePoints: socialPoints, MaxPoints: socialPoints, Title: "GitHub", Description: "Verify your GitHub activity"},
	MethodLinkedIn: {ID: MethodLinkedIn, Category: CategorySocial, BasePoints: socialPoints, MaxPoints: socialPoints, Title: "LinkedIn", Description: "Verify your LinkedIn account ownership"},

	MethodStellarTransactions: {ID: MethodStellarTransactions, Category: CategoryBlockchain, MaxPoints: 50, Title: "Stellar Activity", Description: "Prove on-chain activity on the Stellar network"},

	MethodGovernmentID:      {ID: MethodGovernmentID, Category: CategoryPhysical, BasePoints: physicalPoints, MaxPoints: physicalPoints, Title: "Government ID", Description: "Use government identification to verify your identity"},
	MethodBinance:           {ID: MethodBinance, Category: CategoryPhysical, BasePoints: physicalPoints, MaxPoints: physicalPoints, Title: "Binance", Description: "Verify KYC using Binance Account Bound Token"},
	MethodPhoneVerification: {ID: MethodPhoneVerification, Category: CategoryPhysical, BasePoints: physicalPoints, MaxPoints: physicalPoints, Title: "Phone Verification", Description: "Verify your identity using phone number"},
	MethodBiometrics:        {ID: MethodBiometrics, Category: CategoryPhysical, BasePoints: physicalPoints, MaxPoints: physicalPoints, Title: "Biometrics", Description: "Verify your uniqueness using facial biometrics"},
	MethodProofCleanHands:   {ID: MethodProofCleanHands, Category: CategoryPhysical, BasePoints: physicalPoints, MaxPoints: physicalPoints, Title: "Proof of Clean Hands", Description: "Prove you're not on sanctions lists"},
}

// LookupMethod returns the catalog entry for id.
func LookupMethod(id string) (Method, error) {
	m, ok := catalog[id]
	if !ok {
		return Method{}, dErrors.New(dErrors.CodeNotFound, "unknown verification method: "+id)
	}
	return m, nil
}

// LookupMethodIn returns the entry for id only if it belongs to category.
func LookupMethodIn(id string, category Category) (Method, error) {
	m, err := LookupMethod(id)
	if err != nil {
		return Method{}, err
	}
	if m.Category != category {
		return Method{}, dErrors.New(dErrors.CodeInvalidInput, "method "+id+" is not a "+string(category)+" method")
	}
	return m, nil
}

// Methods lists the catalog, optionally filtered by category, ordered by
// category then id.
func Methods(category Category) []Method {
	out := make([]Method, 0, len(catalog))
	for _, m := range catalog {
		if category == "" || m.Category == category {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// MaxScore is the sum of every method's maximum points.
func MaxScore() int {
	total := 0
	for _, m := range catalog {
		total += m.MaxPoints
	}
	return total
}
