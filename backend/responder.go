package backend

// Responder turns a user message into the ordered tokens of the reply.
type Responder func(message string) []string

// EchoResponder replies with "echo: <message>", one token per character.
func EchoResponder(message string) []string {
	reply := "echo: " + message

	tokens := make([]string, 0, len(reply))
	for _, r := range reply {
		tokens = append(tokens, string(r))
	}
	return tokens
}
