package models

import "strings"

type Domain string

const (
	Invoicing      Domain = "INVOICING"
	Payments       Domain = "PAYMENTS"
	Reporting      Domain = "REPORTING"
	Disputes       Domain = "DISPUTES"
	UserManagement Domain = "USER_MANAGEMENT"
	RagQuery       Domain = "RAG_QUERY"
	SystemSearch   Domain = "SYSTEM_SEARCH"
	General        Domain = "GENERAL"
)

// DefaultDomain is used whenever classification is uncertain or fails.
const DefaultDomain = General

var domainDescriptions = map[Domain]string{
	Invoicing:      "Creating, updating, or managing invoices and billing",
	Payments:       "Processing payments, refunds, and payment methods",
	Reporting:      "Generating reports, analytics, and data exports",
	Disputes:       "Handling chargebacks, disputes, and claims",
	UserManagement: "Managing users, accounts, and permissions",
	RagQuery:       "Answering questions from knowledge base",
	SystemSearch:   "Searching for request status or available tools",
	General:        "General queries that don't fit other categories",
}

// Domains returns every domain in declaration order.
func Domains() []Domain {
	return []Domain{Invoicing, Payments, Reporting, Disputes, UserManagement, RagQuery, SystemSearch, General}
}

func (d Domain) Valid() bool {
	_, ok := domainDescriptions[d]
	return ok
}

func (d Domain) Description() string {
	return domainDescriptions[d]
}

func (d Domain) String() string {
	return string(d)
}

// ParseDomain normalises free text into a known domain, falling back to DefaultDomain.
func ParseDomain(s string) (Domain, bool) {
	d := Domain(strings.ToUpper(strings.TrimSpace(s)))
	if !d.Valid() {
		return DefaultDomain, false
	}
	return d, true
}

// Classification is the output of the domain classifier.
type Classification struct {
	Domain      Domain  `json:"domain"`
	Confidence  float64 `json:"confidence"`
	Description string  `json:"description"`
}
