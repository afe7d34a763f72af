package models

type ParamType string

const (
	ParamPath     ParamType = "path"
	ParamQuery    ParamType = "query"
	ParamBody     ParamType = "body"
	ParamFormData ParamType = "formdata"
)

type BodyType string

const (
	BodyRaw      BodyType = "raw"
	BodyFormData BodyType = "formdata"
	BodyNone     BodyType = "none"
)

type Header struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type Parameter struct {
	Name string    `json:"name"`
	Type ParamType `json:"type"`
}

// ToolDefinition describes one callable HTTP operation. It is immutable once loaded.
type ToolDefinition struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Collection  string      `json:"collection,omitempty"`
	Domain      Domain      `json:"domain"`
	Method      string      `json:"method"`
	URL         string      `json:"url"`
	Headers     []Header    `json:"headers"`
	Parameters  []Parameter `json:"parameters"`
	BodyType    BodyType    `json:"body_type"`
}

// ParamsOfType returns the declared parameter names with the given type, in declaration order.
func (t ToolDefinition) ParamsOfType(types ...ParamType) []string {
	var names []string
	for _, p := range t.Parameters {
		for _, typ := range types {
			if p.Type == typ {
				names = append(names, p.Name)
				break
			}
		}
	}
	return names
}

// ToolCandidate is a retrieved tool with its similarity to the current query.
type ToolCandidate struct {
	ToolDefinition
	RelevanceScore float64 `json:"relevance_score"`
}
