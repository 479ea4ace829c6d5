package domain

// Equipment log types accepted by the plant API.
const (
	LogFailure     = "FAILURE"
	LogRepair      = "REPAIR"
	LogReplacement = "REPLACEMENT"
)

var LogTypes = []string{LogFailure, LogRepair, LogReplacement}

type Location struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

// EquipmentNode is one node of the equipment tree under a location.
type EquipmentNode struct {
	ID       int             `json:"id"`
	Text     string          `json:"text"`
	Children []EquipmentNode `json:"children,omitempty"`
}

// EquipmentLog is the payload of a failure/repair/replacement submission.
// EventTimestamp is YYYY-MM-DDTHH:MM:SS in plant local time.
type EquipmentLog struct {
	Notes          string `json:"notes"`
	LogType        string `json:"log_type"`
	EventTimestamp string `json:"event_timestamp"`
}
