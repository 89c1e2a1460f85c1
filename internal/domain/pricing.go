package domain

import "sort"

// creditCosts maps the supported video durations (seconds) to their credit price.
var creditCosts = map[int]int{
	4:  1,
	10: 2,
	30: 5,
	60: 9,
}

// CreditCost returns the price of a video of the given duration. ok is false
// when the duration is not offered.
func CreditCost(durationSeconds int) (cost int, ok bool) {
	cost, ok = creditCosts[durationSeconds]
	return cost, ok
}

// Durations lists the supported durations in ascending order.
func Durations() []int {
	out := make([]int, 0, len(creditCosts))
	for d := range creditCosts {
		out = append(out, d)
	}
	sort.Ints(out)
	return out
}

// CreditPackage is a purchasable bundle of credits.
type CreditPackage struct {
	ID       string
	Name     string
	Credits  int
	Price    int64
	Currency string
	Popular  bool
}

var packages = []CreditPackage{
	{ID: "pkg_20", Name: "Starter Pack", Credits: 1, Price: 5000, Currency: "TZS"},
	{ID: "pkg_60", Name: "Creator Pack", Credits: 3, Price: 12000, Currency: "TZS", Popular: true},
	{ID: "pkg_150", Name: "Pro Pack", Credits: 6, Price: 25000, Currency: "TZS"},
}

// Packages returns a copy of the package catalogue.
func Packages() []CreditPackage {
	out := make([]CreditPackage, len(packages))
	copy(out, packages)
	return out
}

// FindPackage looks up a package by id.
func FindPackage(id string) (CreditPackage, error) {
	for _, p := range packages {
		if p.ID == id {
			return p, nil
		}
	}
	return CreditPackage{}, invalidf("unknown package %q", id)
}
