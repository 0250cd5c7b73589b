package structs

import jsoniter "github.com/json-iterator/go"

// StagehandPayload is the envelope dispatch events are consumed in and
// republished with once normalized.
type StagehandPayload struct {
	Data     jsoniter.RawMessage `json:"d"`
	Type     string              `json:"t"`
	Sequence int64               `json:"s,omitempty"`
	Op       int32               `json:"op"`

	Metadata StagehandMetadata `json:"__stagehand,omitempty"`
}

// StagehandMetadata identifies the daemon that republished a payload.
type StagehandMetadata struct {
	Version     string `json:"v"`
	Identifier  string `json:"identifier"`
	Application string `json:"application,omitempty"`
}
