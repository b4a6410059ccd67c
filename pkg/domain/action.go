package domain

// ActionRequest is an action as it arrives from outside the process: a
// registered name and a loosely typed payload. Codecs turn it into a typed
// action value.
type ActionRequest struct {
	Type    string         `json:"type" yaml:"type" mapstructure:"type"`
	Payload map[string]any `json:"payload,omitempty" yaml:"payload,omitempty" mapstructure:"payload"`
}

// ActionResponse reports the outcome of an ActionRequest.
type ActionResponse struct {
	Accepted bool      `json:"accepted"`
	Snapshot *Snapshot `json:"snapshot,omitempty"`
	Error    string    `json:"error,omitempty"`
}
