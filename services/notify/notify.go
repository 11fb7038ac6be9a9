package notify

import (
	"canteen-bot/httpServices/telegram"
)

// Dispatcher delivers outbound messages to customers and the operator.
// Delivery is best-effort; callers log failures and move on, since a dropped
// notification must never roll back a committed state change.
type Dispatcher interface {
	Send(chatID, text string) error
}

// ChatDispatcher sends through the Telegram bot API.
type ChatDispatcher struct {
	client *telegram.Client
}

func NewChatDispatcher(client *telegram.Client) *ChatDispatcher {
	return &ChatDispatcher{client: client}
}

func (d *ChatDispatcher) Send(chatID, text string) error {
	return d.client.SendMessage(chatID, text)
}
