package chat

// Sink receives the ordered mutations of assistant messages. It is owned by
// the presentation layer; the core never touches presentation state directly.
//
// Notifications for one message id arrive in stream order and stop once the
// message is completed or errored. Notifications for different ids may be
// interleaved when several sessions run at once, so implementations must be
// safe for concurrent use.
type Sink interface {
	// Append adds text to the end of the message.
	Append(id, text string)

	// MarkComplete reports that the message finished streaming.
	MarkComplete(id string)

	// MarkError reports that streaming failed with the given description.
	MarkError(id, description string)
}
