package catalog

import (
	"go-toolrouter/pkg/models"
	"strings"
)

// Document is the text a tool is embedded and searched by.
func Document(t models.ToolDefinition) string {
	parts := []string{
		"Name: " + t.Name,
		"Description: " + t.Description,
		"Method: " + t.Method,
		"URL: " + t.URL,
		"Domain: " + string(t.Domain),
	}
	if len(t.Parameters) > 0 {
		names := make([]string, len(t.Parameters))
		for i, p := range t.Parameters {
			names[i] = p.Name
		}
		parts = append(parts, "Parameters: "+strings.Join(names, ", "))
	}
	return strings.Join(parts, " | ")
}
