package domain

// ActionDescriptor describes an action accepted by a codec. Parameters is a
// JSON-schema style object describing the payload, suitable for tool listings.
type ActionDescriptor struct {
	Name        string         `json:"name" yaml:"name" mapstructure:"name"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`
	Parameters  map[string]any `json:"parameters,omitempty" yaml:"parameters,omitempty" mapstructure:"parameters"`
}
