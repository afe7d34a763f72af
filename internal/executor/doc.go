// Package executor turns a tool invocation (tool id, free-form parameters and the tool's
// definition) into exactly one HTTP request and normalises whatever comes back, or fails,
// into a models.ExecutionResult.
//
// Request construction:
//   - URL placeholders in {{key}}, {key} and :key syntax are substituted in a single pass.
//   - Default JSON headers are overlaid with the tool's headers; {{key}} and {key} are
//     substituted in header values. An api_key or auth_token parameter becomes a Bearer
//     Authorization header, api_key first.
//   - POST, PUT and PATCH carry a body: declared body/formdata parameters only, or every
//     parameter not declared as path or query when the tool declares none.
//   - GET carries declared query parameters only.
//
// Execute never returns an error; timeouts map to 408, connection failures to 503 and
// anything else unexpected to 500.
package executor
