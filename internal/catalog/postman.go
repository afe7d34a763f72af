package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"go-toolrouter/pkg/logger"
	"go-toolrouter/pkg/models"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

type postmanCollection struct {
	Info struct {
		Name string `json:"name"`
	} `json:"info"`
	Item     []postmanItem `json:"item"`
	Variable []postmanKV   `json:"variable"`
}

type postmanItem struct {
	Name        string          `json:"name"`
	Description postmanText     `json:"description"`
	Item        []postmanItem   `json:"item"`
	Request     *postmanRequest `json:"request"`
}

type postmanRequest struct {
	Method      string       `json:"method"`
	Header      []postmanKV  `json:"header"`
	URL         postmanURL   `json:"url"`
	Body        *postmanBody `json:"body"`
	Description postmanText  `json:"description"`
}

// UnmarshalJSON accepts the short form where a request is only its URL.
func (r *postmanRequest) UnmarshalJSON(b []byte) error {
	if bytes.HasPrefix(bytes.TrimSpace(b), []byte(`"`)) {
		var raw string
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
		*r = postmanRequest{Method: "GET", URL: postmanURL{Raw: raw}}
		return nil
	}
	type plain postmanRequest
	return json.Unmarshal(b, (*plain)(r))
}

type postmanURL struct {
	Raw      string      `json:"raw"`
	Query    []postmanKV `json:"query"`
	Variable []postmanKV `json:"variable"`
}

func (u *postmanURL) UnmarshalJSON(b []byte) error {
	if bytes.HasPrefix(bytes.TrimSpace(b), []byte(`"`)) {
		return json.Unmarshal(b, &u.Raw)
	}
	type plain postmanURL
	return json.Unmarshal(b, (*plain)(u))
}

type postmanBody struct {
	Mode       string      `json:"mode"`
	Formdata   []postmanKV `json:"formdata"`
	Urlencoded []postmanKV `json:"urlencoded"`
}

type postmanKV struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

func (kv postmanKV) value() string {
	switch v := kv.Value.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// postmanText is a description, which is either a plain string or {"content": "..."}.
type postmanText string

func (t *postmanText) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*t = postmanText(s)
		return nil
	}
	var obj struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	*t = postmanText(obj.Content)
	return nil
}

// ParseDir parses every *.json Postman collection in dir. Files that fail to parse are
// logged and skipped.
func ParseDir(dir string) ([]models.ToolDefinition, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("collections dir: %w", err)
	}
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("glob: %w", err)
	}
	sort.Strings(files)

	log := logger.For("catalog")
	ids := map[string]bool{}
	var tools []models.ToolDefinition
	for _, path := range files {
		parsed, err := parseFile(path)
		if err != nil {
			log.Warn().Err(err).Str("file", path).Msg("skipping collection")
			continue
		}
		for _, t := range parsed {
			t.ID = uniqueID(ids, t.ID)
			tools = append(tools, t)
		}
		log.Debug().Str("file", path).Int("tools", len(parsed)).Msg("parsed collection")
	}
	return tools, nil
}

func parseFile(path string) ([]models.ToolDefinition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseCollection(f)
}

// ParseCollection converts one Postman v2 collection into tool definitions. Folders are
// walked recursively.
func ParseCollection(r io.Reader) ([]models.ToolDefinition, error) {
	var c postmanCollection
	if err := json.NewDecoder(r).Decode(&c); err != nil {
		return nil, fmt.Errorf("decode collection: %w", err)
	}
	name := c.Info.Name
	if name == "" {
		name = "Unknown"
	}
	vars := map[string]string{}
	for _, v := range c.Variable {
		if v.Key != "" {
			vars[v.Key] = v.value()
		}
	}

	var tools []models.ToolDefinition
	var walk func(items []postmanItem)
	walk = func(items []postmanItem) {
		for _, item := range items {
			if item.Request != nil {
				tools = append(tools, toTool(item, name, vars))
				continue
			}
			walk(item.Item)
		}
	}
	walk(c.Item)
	return tools, nil
}

func toTool(item postmanItem, collection string, vars map[string]string) models.ToolDefinition {
	req := item.Request
	name := item.Name
	if name == "" {
		name = "Unnamed Tool"
	}
	desc := string(item.Description)
	if desc == "" {
		desc = string(req.Description)
	}
	method := strings.ToUpper(req.Method)
	if method == "" {
		method = "GET"
	}

	headers := make([]models.Header, 0, len(req.Header))
	for _, h := range req.Header {
		headers = append(headers, models.Header{Key: h.Key, Value: resolveVars(h.value(), vars)})
	}

	return models.ToolDefinition{
		ID:          ToolID(name),
		Name:        name,
		Description: desc,
		Collection:  collection,
		Domain:      InferDomain(name, collection),
		Method:      method,
		URL:         resolveVars(req.URL.Raw, vars),
		Headers:     headers,
		Parameters:  parameters(req),
		BodyType:    bodyType(req.Body),
	}
}

func parameters(req *postmanRequest) []models.Parameter {
	var params []models.Parameter
	for _, v := range req.URL.Variable {
		params = append(params, models.Parameter{Name: v.Key, Type: models.ParamPath})
	}
	for _, q := range req.URL.Query {
		params = append(params, models.Parameter{Name: q.Key, Type: models.ParamQuery})
	}
	if req.Body != nil {
		var fields []postmanKV
		switch req.Body.Mode {
		case "formdata":
			fields = req.Body.Formdata
		case "urlencoded":
			fields = req.Body.Urlencoded
		}
		for _, f := range fields {
			params = append(params, models.Parameter{Name: f.Key, Type: models.ParamFormData})
		}
	}
	return params
}

func bodyType(b *postmanBody) models.BodyType {
	if b == nil {
		return models.BodyNone
	}
	switch b.Mode {
	case "raw", "graphql":
		return models.BodyRaw
	case "formdata", "urlencoded":
		return models.BodyFormData
	default:
		return models.BodyNone
	}
}

// resolveVars replaces {{name}} for every collection variable. Unknown placeholders are
// left for the executor to fill from call parameters.
func resolveVars(s string, vars map[string]string) string {
	if len(vars) == 0 || !strings.Contains(s, "{{") {
		return s
	}
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	return strings.NewReplacer(pairs...).Replace(s)
}

// ToolID derives a stable identifier from a request name.
func ToolID(name string) string {
	return strings.NewReplacer(" ", "_", "-", "_").Replace(strings.ToLower(name))
}

func uniqueID(seen map[string]bool, id string) string {
	candidate := id
	for n := 2; seen[candidate]; n++ {
		candidate = fmt.Sprintf("%s_%d", id, n)
	}
	seen[candidate] = true
	return candidate
}

var domainKeywords = []struct {
	domain   models.Domain
	keywords []string
}{
	{models.Invoicing, []string{"invoice", "bill", "billing"}},
	// Disputes precede payments so that "chargeback" is not taken for "charge".
	{models.Disputes, []string{"dispute", "chargeback", "claim"}},
	{models.Payments, []string{"payment", "pay", "charge", "refund"}},
	{models.Reporting, []string{"report", "analytics", "export"}},
	{models.UserManagement, []string{"user", "account", "profile"}},
}

// InferDomain guesses a domain from keywords in the request and collection names.
func InferDomain(name, collection string) models.Domain {
	text := strings.ToLower(name + " " + collection)
	for _, d := range domainKeywords {
		for _, kw := range d.keywords {
			if strings.Contains(text, kw) {
				return d.domain
			}
		}
	}
	return models.DefaultDomain
}
