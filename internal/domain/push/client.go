package push

import "context"

// Message is one push notification: a destination token, the visible
// title/body pair and a structured data payload.
type Message struct {
	Token string
	Title string
	Body  string
	Data  map[string]string
}

// Client defines an interface for delivering push messages. This keeps
// application logic decoupled from the concrete messaging SDK.
type Client interface {
	// Send delivers one message and returns the provider message id.
	Send(ctx context.Context, msg Message) (string, error)
}
