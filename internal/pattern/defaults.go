package pattern

import "github.com/Veraticus/bankfeed-autopilot/internal/model"

// DefaultRules returns a fresh copy of the built-in rule set.
// Vendor rules come first, then amount rules, then description keywords.
func DefaultRules() []Rule {
	add := Act(model.ActionAdd)

	return []Rule{
		// Vendor/payee rules
		{Name: "Amazon -> Office Supplies", Predicate: Contains("amazon"), Category: "Office Supplies", Confidence: Conf(0.9), Action: add},
		{Name: "Facebook Ads -> Advertising", Predicate: Contains("facebook ads", "meta ads"), Category: "Advertising", Confidence: Conf(0.9), Action: add},
		{Name: "Stripe Fees -> Bank Charges", Predicate: Contains("stripe fee", "stripe payout fee"), Category: "Bank Charges", Confidence: Conf(0.95), Action: add},
		{Name: "Google Ads -> Advertising", Predicate: Contains("google ads", "google adwords"), Category: "Advertising", Confidence: Conf(0.9), Action: add},
		{Name: "PayPal -> Bank Charges", Predicate: Contains("paypal"), Category: "Bank Charges", Confidence: Conf(0.8), Action: add},
		{Name: "Office Depot -> Office Supplies", Predicate: Contains("office depot"), Category: "Office Supplies", Confidence: Conf(0.9), Action: add},
		{Name: "Staples -> Office Supplies", Predicate: Contains("staples"), Category: "Office Supplies", Confidence: Conf(0.9), Action: add},

		// Amount rules
		{Name: "Large Expense -> Review", Predicate: SpentOver(1000), Category: "Review Required", Confidence: Conf(0.7), Action: Act(model.ActionMarkForReview)},
		{Name: "Small Expense -> Office Supplies", Predicate: All(SpentUnder(50), Contains("supplies")), Category: "Office Supplies", Confidence: Conf(0.8), Action: add},

		// Description keywords
		{Name: "Software Subscriptions -> Software", Predicate: Contains("subscription", "software"), Category: "Software", Confidence: Conf(0.85), Action: add},
		{Name: "Travel Expenses -> Travel", Predicate: Contains("travel", "hotel", "flight"), Category: "Travel", Confidence: Conf(0.9), Action: add},
		{Name: "Meals -> Meals & Entertainment", Predicate: Contains("restaurant", "food", "meal"), Category: "Meals & Entertainment", Confidence: Conf(0.8), Action: add},
	}
}
