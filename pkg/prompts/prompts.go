package prompts

var (
	DomainRouter = `You are a domain classification router. Classify the user's query into ONE of these domains:

{{.Domains}}

Respond with ONLY the domain name (e.g., INVOICING, PAYMENTS, etc.). No explanation.

Query: {{.Query}}`

	AgentDecision = `You are a helpful API assistant. Given the user's query and available tools, decide whether to:
1. Call an API tool to fulfill the request
2. Respond directly if no tool is needed or available

User Query: {{.Query}}

Available Tools:
{{.Tools}}

If you need to use a tool, respond with JSON:
{"action": "use_tool", "tool_id": "...", "parameters": {...}}

If you can respond directly, respond with JSON:
{"action": "respond", "response": "..."}

Be precise with parameter extraction.`

	AgentSynthesis = `The user asked: "{{.Query}}"

The API returned:
{{.Result}}

Provide a clear, natural language response to the user based on this result.
Be concise and helpful.`

	FriendlyError = `The user asked: "{{.Query}}"

We attempted to fulfill their request but encountered an error:
Error: {{.Error}}{{.ToolInfo}}

Generate a clear, helpful error message for the user that:
1. Explains what went wrong in simple, non-technical terms
2. Suggests what they should check or do differently
3. Maintain a friendly, supportive tone
4. Does NOT include technical details or codes

Keep it concise (2-3 sentences).`

	// ToolLine renders one candidate in the decision prompt.
	ToolLine = `- {{.Name}} (ID: {{.ID}}): {{.Description}} [{{.Method}} {{.URL}}]`

	// CatalogSummary renders the system-search tool listing.
	CatalogSummary = `I have access to {{.Total}} tools across these domains:
{{range .Domains}}- {{.Domain}}: {{.Count}} tools
{{end}}`
)
