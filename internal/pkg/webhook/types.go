package webhook

// Payload shapes of the two inbound bridge webhooks. Field names follow the
// bridge's wire contract exactly; do not rename the JSON tags.

// StatusPayload is the body of POST /webhooks/device-status.
type StatusPayload struct {
	Device    StatusDevice `json:"device"`
	Event     StatusEvent  `json:"event"`
	Timestamp string       `json:"timestamp"`
}

type StatusDevice struct {
	PhoneNumber string `json:"phoneNumber"`
	Name        string `json:"name"`
	Status      string `json:"status"`
}

type StatusEvent struct {
	Type    string      `json:"type"`
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// MessagePayload is the body of POST /webhooks/device-message.
type MessagePayload struct {
	Device    MessageDevice `json:"device"`
	Message   BridgeMessage `json:"message"`
	Timestamp string        `json:"timestamp"`
}

type MessageDevice struct {
	DeviceHash string `json:"deviceHash"`
}

type BridgeMessage struct {
	ID        string `json:"id"`
	From      string `json:"from"`
	To        string `json:"to"`
	Body      string `json:"body,omitempty"`
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
	FromMe    bool   `json:"fromMe"`
}
