package categorizer

import (
	"fmt"
	"strings"
)

// Category is a budget category identifier
type Category string

const (
	Food       Category = "FOOD"
	Transport  Category = "TRANSPORT"
	Housing    Category = "HOUSING"
	Leisure    Category = "LEISURE"
	Health     Category = "HEALTH"
	Shopping   Category = "SHOPPING"
	Services   Category = "SERVICES"
	Education  Category = "EDUCATION"
	Gifts      Category = "GIFTS"
	Veterinary Category = "VETERINARY"
	Income     Category = "INCOME"
	Transfers  Category = "TRANSFERS"
	Other      Category = "OTHER"

	// Health
	Medical     Category = "MEDICAL"
	Pharmacy    Category = "PHARMACY"
	Insurance   Category = "INSURANCE"
	Pill        Category = "PILL"
	Supplements Category = "SUPPLEMENTS"

	// Shopping
	Clothing    Category = "CLOTHING"
	Electronics Category = "ELECTRONICS"
	Home        Category = "HOME"
	Beauty      Category = "BEAUTY"
	Jewelry     Category = "JEWELRY"

	Groceries        Category = "GROCERIES"
	Restaurant       Category = "RESTAURANT"
	Bar              Category = "BAR"
	PublicTransport  Category = "PUBLIC_TRANSPORT"
	Taxi             Category = "TAXI"
	Fuel             Category = "FUEL"
	Rent             Category = "RENT"
	Utilities        Category = "UTILITIES"
	Internet         Category = "INTERNET"
	Hotel            Category = "HOTEL"
	Entertainment    Category = "ENTERTAINMENT"
	Sport            Category = "SPORT"
	Books            Category = "BOOKS"
	Subscriptions    Category = "SUBSCRIPTIONS"
	Salary           Category = "SALARY"
	Freelance        Category = "FREELANCE"
	Reimbursements   Category = "REIMBURSEMENTS"
	TransferAntonin  Category = "TRANSFER_ANTONIN"
	TransferAmandine Category = "TRANSFER_AMANDINE"
	Tobacco          Category = "TOBACCO"
	Credits          Category = "CREDITS"
)

// TaxonomyEntry pairs a category with its human readable scope
type TaxonomyEntry struct {
	ID          Category `json:"id"`
	Description string   `json:"description"`
}

var taxonomy = []TaxonomyEntry{
	{Food, "groceries, restaurants, bars"},
	{Transport, "public transport, taxi, fuel"},
	{Housing, "rent, utilities, internet, hotel"},
	{Leisure, "entertainment, sport, books"},
	{Health, "medical, pharmacy, insurance, pill, supplements"},
	{Shopping, "clothing, electronics, home, beauty, jewelry"},
	{Services, "subscriptions, cleaning"},
	{Education, "courses, books"},
	{Gifts, "presents, donations"},
	{Veterinary, "vet visits, pet food"},
	{Income, "salary, freelance, reimbursements"},
	{Transfers, "transfer_antonin, transfer_amandine"},
	{Other, "uncategorized"},

	{Medical, "medical visits, consultations"},
	{Pharmacy, "pharmacy purchases"},
	{Insurance, "health insurance"},
	{Pill, "medication, pills"},
	{Supplements, "vitamins, supplements"},

	{Clothing, "clothes, shoes, accessories"},
	{Electronics, "gadgets, computers, phones"},
	{Home, "furniture, decoration"},
	{Beauty, "cosmetics, personal care"},
	{Jewelry, "jewelry, watches"},

	{Groceries, "supermarket, food shopping"},
	{Restaurant, "dining out"},
	{Bar, "drinks, nightlife"},
	{PublicTransport, "bus, train, metro"},
	{Taxi, "taxi, uber"},
	{Fuel, "gasoline, diesel"},
	{Rent, "housing rent"},
	{Utilities, "electricity, water, gas"},
	{Internet, "internet service, mobile data"},
	{Hotel, "hotel stays"},
	{Entertainment, "movies, concerts, events"},
	{Sport, "gym, sports activities"},
	{Books, "books, e-books"},
	{Subscriptions, "recurring services"},
	{Salary, "regular income"},
	{Freelance, "freelance income"},
	{Reimbursements, "expense reimbursements"},
	{TransferAntonin, "transfers to/from Antonin"},
	{TransferAmandine, "transfers to/from Amandine"},
	{Tobacco, "tobacco, cigarettes, vape"},
	{Credits, "loans, credits, financing"},
}

var descriptions = func() map[Category]string {
	m := make(map[Category]string, len(taxonomy))
	for _, entry := range taxonomy {
		m[entry.ID] = entry.Description
	}
	return m
}()

// AllCategories returns every category in declaration order
func AllCategories() []Category {
	out := make([]Category, len(taxonomy))
	for i, entry := range taxonomy {
		out[i] = entry.ID
	}
	return out
}

// Entries returns the taxonomy in declaration order
func Entries() []TaxonomyEntry {
	out := make([]TaxonomyEntry, len(taxonomy))
	copy(out, taxonomy)
	return out
}

// Describe returns the description of c, or "" for an unknown category
func Describe(c Category) string {
	return descriptions[c]
}

// IsValid reports whether id is exactly a known identifier. It does not normalize.
func IsValid(id string) bool {
	_, ok := descriptions[Category(id)]
	return ok
}

// Normalize trims and uppercases a candidate identifier
func Normalize(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// Parse normalizes id and returns the matching category
func Parse(id string) (Category, bool) {
	normalized := Normalize(id)
	if !IsValid(normalized) {
		return "", false
	}
	return Category(normalized), true
}

// Listing renders one "- ID (description)" line per category
func Listing() string {
	lines := make([]string, len(taxonomy))
	for i, entry := range taxonomy {
		lines[i] = fmt.Sprintf("- %s (%s)", entry.ID, entry.Description)
	}
	return strings.Join(lines, "\n")
}
