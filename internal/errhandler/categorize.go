package errhandler

import (
	"go-toolrouter/pkg/models"
	"strings"
)

type rule struct {
	category models.ErrorCategory
	keywords []string
}

// rules are evaluated in order; the first match wins. Error strings often carry several
// matching substrings (a status code next to the word "invalid"), so the order is fixed.
var rules = []rule{
	{models.ErrTimeout, []string{"timeout", "408"}},
	{models.ErrAuth, []string{"authentication", "unauthorized", "401", "api key", "token"}},
	{models.ErrNotFound, []string{"not found", "404"}},
	{models.ErrInvalid, []string{"invalid", "bad request", "400", "validation"}},
	{models.ErrRateLimit, []string{"rate limit", "429"}},
	{models.ErrForbidden, []string{"forbidden", "403"}},
	{models.ErrServer, []string{"500", "internal server", "503", "service unavailable"}},
	{models.ErrConnection, []string{"connection", "network"}},
}

// Categorize maps a raw error string onto the closed error taxonomy.
func Categorize(errText string) models.ErrorCategory {
	lower := strings.ToLower(errText)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				return r.category
			}
		}
	}
	return models.ErrUnknown
}
