package dialog

// MessageRef points to a message previously delivered to the chat.
type MessageRef struct {
	MessageID string `json:"message_id"`
	ChatID    int64  `json:"chat_id"`
}

// Event is an inbound update addressed to a session.
type Event interface {
	SessionID() int64
	kind() string
}

// Origin carries the session id of an event.
type Origin struct {
	Session int64
}

// SessionID returns the addressed session.
func (o Origin) SessionID() int64 { return o.Session }

// StartCommand opens (or restarts) a conversation.
type StartCommand struct{ Origin }

// StopCommand ends the conversation and discards the session.
type StopCommand struct{ Origin }

// TextInput is a plain text message.
type TextInput struct {
	Origin
	Text string
}

// VoiceInput is a voice message payload.
type VoiceInput struct {
	Origin
	Audio []byte
}

// CallbackEvent is an inline button press on a previously sent message.
type CallbackEvent struct {
	Origin
	Code    CallbackCode
	Message MessageRef
}

func (StartCommand) kind() string  { return "start" }
func (StopCommand) kind() string   { return "stop" }
func (TextInput) kind() string     { return "text" }
func (VoiceInput) kind() string    { return "voice" }
func (CallbackEvent) kind() string { return "callback" }
