package handler

// decisionSchema constrains the JSON the decision model must reply with.
const decisionSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["action"],
  "oneOf": [
    {
      "properties": {
        "action": {"const": "use_tool"},
        "tool_id": {"type": "string", "minLength": 1},
        "parameters": {"type": ["object", "null"]}
      },
      "required": ["tool_id"]
    },
    {
      "properties": {
        "action": {"const": "respond"},
        "response": {"type": "string"}
      },
      "required": ["response"]
    }
  ]
}`

const decisionSchemaURL = "https://toolrouter.local/schemas/decision.schema.json"
