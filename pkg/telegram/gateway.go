package telegram

// Gateway defines the interface for delivering staff notifications
type Gateway interface {
	// SendMessage delivers a text message to a chat
	// Returns an error if the delivery failed
	SendMessage(chatID int64, text string) error

	// GetName returns the name of the gateway implementation
	GetName() string
}
