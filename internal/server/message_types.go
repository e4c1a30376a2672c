package server

// MessageType represents a WebSocket message type with type safety
type MessageType string

// WebSocket message type constants
const (
	// Client to server messages
	MessageTypeDeal     MessageType = "deal"
	MessageTypeManual   MessageType = "manual"
	MessageTypeUndo     MessageType = "undo"
	MessageTypeReset    MessageType = "reset"
	MessageTypeForecast MessageType = "forecast"
	MessageTypeCancel   MessageType = "cancel"
	MessageTypeState    MessageType = "state"

	// Server to client messages
	MessageTypeHand          MessageType = "hand"
	MessageTypeProgress      MessageType = "progress"
	MessageTypeShoeExhausted MessageType = "shoe_exhausted"
	MessageTypeError         MessageType = "error"
)

// String returns the string representation of the message type
func (mt MessageType) String() string {
	return string(mt)
}
