package dialog

// Format selects how the transport renders message text.
type Format int

const (
	FormatPlain Format = iota
	FormatMarkdown
)

// KeyboardKind selects the keyboard attached to an outbound message.
type KeyboardKind int

const (
	// KeyboardKeep leaves the current reply keyboard untouched.
	KeyboardKeep KeyboardKind = iota
	KeyboardReply
	KeyboardInline
	KeyboardRemove
)

// Button is a keyboard button. Code is set for inline buttons only.
type Button struct {
	Label string
	Code  CallbackCode
}

// Keyboard describes the keyboard attached to a message.
type Keyboard struct {
	Kind KeyboardKind
	Rows [][]Button
}

// Action is an outbound instruction for the transport.
type Action interface {
	Target() int64
}

// SendMessage posts a new message to the session chat.
type SendMessage struct {
	SessionID int64
	Text      string
	Format    Format
	Keyboard  Keyboard
}

// EditMessage replaces text and keyboard of an existing message.
type EditMessage struct {
	SessionID int64
	Ref       MessageRef
	Text      string
	Format    Format
	Keyboard  Keyboard
}

// DeleteMessage removes a message.
type DeleteMessage struct {
	SessionID int64
	Ref       MessageRef
}

func (a SendMessage) Target() int64   { return a.SessionID }
func (a EditMessage) Target() int64   { return a.SessionID }
func (a DeleteMessage) Target() int64 { return a.SessionID }
