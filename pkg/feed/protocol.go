package feed

// MessageType identifies a feed message.
type MessageType string

const (
	TypeBatch    MessageType = "batch"
	TypeBindings MessageType = "bindings"
	TypeError    MessageType = "error"
)

// ClientMessage is sent by the browser agent.
type ClientMessage struct {
	Type    MessageType  `json:"type"`
	Added   []NodeSpec   `json:"added,omitempty"`
	Removed []string     `json:"removed,omitempty"`
	Changed []AttrChange `json:"changed,omitempty"`
}

// NodeSpec describes an added element. Before optionally names the sibling
// the node is inserted ahead of.
type NodeSpec struct {
	ID     string            `json:"id"`
	Parent string            `json:"parent"`
	Before string            `json:"before,omitempty"`
	Tag    string            `json:"tag"`
	Attrs  map[string]string `json:"attrs,omitempty"`
}

// AttrChange describes an attribute set or removal.
type AttrChange struct {
	ID      string `json:"id"`
	Key     string `json:"key"`
	Value   string `json:"value,omitempty"`
	Removed bool   `json:"removed,omitempty"`
}

// ServerMessage is sent by the server after each batch.
type ServerMessage struct {
	Type     MessageType   `json:"type"`
	Bindings []BindingInfo `json:"bindings"`
	Errors   []ErrorInfo   `json:"errors"`
}

// BindingInfo names one live binding on the mirror.
type BindingInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Payload string `json:"payload,omitempty"`
}

// ErrorInfo reports a per-element failure or a rejected message.
type ErrorInfo struct {
	ID      string `json:"id,omitempty"`
	Name    string `json:"name,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
