package tool

// JSONSchema captures the subset of JSON Schema we require for tool
// declaration and input validation.
type JSONSchema struct {
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties,omitempty"`
	Required   []string       `json:"required"`
}
