package types

// Tool is the definition of a function a model may call, as sent to providers
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}
