package bookgen

import "github.com/Hassanibrar632/Automated-BookGen/internal/llm"

// conversation is an append-only message log owned by a single generation
// call. Retries within that call see the prior failed exchanges as context;
// nothing is shared across unrelated calls.
type conversation struct {
	msgs []llm.Message
}

func newConversation(system string) *conversation {
	return &conversation{
		msgs: []llm.Message{{Role: "system", Content: system}},
	}
}

func (c *conversation) addUser(content string) {
	c.msgs = append(c.msgs, llm.Message{Role: "user", Content: content})
}

func (c *conversation) addAssistant(content string) {
	c.msgs = append(c.msgs, llm.Message{Role: "assistant", Content: content})
}

func (c *conversation) messages() []llm.Message {
	return c.msgs
}
