package chat

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message of a conversation. Turns are never edited after they are appended.
type Turn struct {
	Index   int    `json:"index"`
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// History is the ordered list of turns of one session.
type History []Turn

// Append returns a copy of h with a new turn at the next index.
func (h History) Append(role Role, content string) History {
	out := make(History, len(h), len(h)+1)
	copy(out, h)
	return append(out, Turn{Index: len(h), Role: role, Content: content})
}

// LastUser returns the most recent user turn.
func (h History) LastUser() (Turn, bool) {
	for i := len(h) - 1; i >= 0; i-- {
		if h[i].Role == RoleUser {
			return h[i], true
		}
	}
	return Turn{}, false
}
