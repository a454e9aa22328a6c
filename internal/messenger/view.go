package messenger

import "elearning_go/internal/domain"

// ListItem is one row of the rendered conversation list.
type ListItem struct {
	Conversation domain.ConversationSummary
	Preview      string
	Unread       int
	Active       bool
}

// Bubble is a rendered message. Mine is true for messages sent by the
// current user.
type Bubble struct {
	domain.Message
	Mine bool
}

// View renders messenger state. Calls are never made while the client
// holds its lock.
type View interface {
	RenderConversations(items []ListItem)
	ShowHeader(c domain.ConversationSummary)
	ShowLoading()
	ReplaceMessages(msgs []Bubble)
	AppendMessage(msg Bubble)
	ClearPane()
}
