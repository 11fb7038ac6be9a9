package chat

// Event kinds delivered by the messaging transport. The transport classifies
// raw updates into this shape; rendering and localization stay on its side.
const (
	KindAdminCommand = "admin_command"
	KindText         = "text"
	KindButton       = "button"
)

// Event is a single classified inbound customer or operator action.
type Event struct {
	CustomerID string `json:"customer_id"`
	Kind       string `json:"kind"`
	Text       string `json:"text,omitempty"`
	Callback   string `json:"callback,omitempty"`
}

// Reply reports what the router did with an event: the session state after
// handling and the messages dispatched back to the customer.
type Reply struct {
	State    string   `json:"state"`
	Messages []string `json:"messages,omitempty"`
}
