package types

import "time"

type MessageType string

const (
	RecordMessage           MessageType = "RECORD"
	SchemaMessage           MessageType = "SCHEMA"
	StateMessage            MessageType = "STATE"
	LogMessage              MessageType = "LOG"
	ConnectionStatusMessage MessageType = "CONNECTION_STATUS"
	SpecMessage             MessageType = "SPEC"
)

type ConnectionStatus string

const (
	ConnectionSucceed ConnectionStatus = "SUCCEEDED"
	ConnectionFailed  ConnectionStatus = "FAILED"
)

// Message is the stdout protocol envelope; exactly one payload field is set
// per message type.
type Message struct {
	Type               MessageType    `json:"type"`
	Stream             string         `json:"stream,omitempty"`
	Record             Record         `json:"record,omitempty"`
	TimeExtracted      *time.Time     `json:"time_extracted,omitempty"`
	Schema             map[string]any `json:"schema,omitempty"`
	KeyProperties      []string       `json:"key_properties,omitempty"`
	BookmarkProperties []string       `json:"bookmark_properties,omitempty"`
	Value              *State         `json:"value,omitempty"`
	Log                *Log           `json:"log,omitempty"`
	ConnectionStatus   *StatusRow     `json:"connectionStatus,omitempty"`
	Spec               map[string]any `json:"spec,omitempty"`
}

type Log struct {
	Level   string `json:"level,omitempty"`
	Message string `json:"message,omitempty"`
}

type StatusRow struct {
	Status  ConnectionStatus `json:"status,omitempty"`
	Message string           `json:"message,omitempty"`
}
