// Package message defines the inbound chat message shape produced by the
// transport poller and consumed by the command dispatcher.
package message

// Message is one inbound chat message. It is immutable once enqueued.
type Message struct {
	// SenderID is the numeric identity of the sending user.
	SenderID int64
	// SenderName is the sender's display name.
	SenderName string
	// Text is the message body. It may be empty.
	Text string
	// MessageID identifies this message for threaded replies.
	MessageID int64
}
