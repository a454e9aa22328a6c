package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"elearning_go/internal/domain"
	"elearning_go/internal/inbox"
	"elearning_go/internal/messenger"
)

type (
	conversationsMsg struct{ items []messenger.ListItem }
	headerMsg        struct{ conv domain.ConversationSummary }
	loadingMsg       struct{}
	replaceMsg       struct{ bubbles []messenger.Bubble }
	appendMsg        struct{ bubble messenger.Bubble }
	clearMsg         struct{}
	stateMsg         struct{ state inbox.State }
	errMsg           struct{ err error }
)

// Bridge implements messenger.View by forwarding every call to a running
// tea.Program as a message. Calls made before Attach are queued.
type Bridge struct {
	mu      sync.Mutex
	send    func(tea.Msg)
	pending []tea.Msg
}

var _ messenger.View = (*Bridge)(nil)

func NewBridge() *Bridge {
	return &Bridge{}
}

// Attach starts delivering messages through send, usually (*tea.Program).Send.
// Posts made while the queue is flushing are queued behind it, so delivery
// order matches call order.
func (b *Bridge) Attach(send func(tea.Msg)) {
	for {
		b.mu.Lock()
		queued := b.pending
		b.pending = nil
		if len(queued) == 0 {
			b.send = send
			b.mu.Unlock()
			return
		}
		b.mu.Unlock()
		for _, m := range queued {
			send(m)
		}
	}
}

func (b *Bridge) post(m tea.Msg) {
	b.mu.Lock()
	send := b.send
	if send == nil {
		b.pending = append(b.pending, m)
	}
	b.mu.Unlock()
	if send != nil {
		send(m)
	}
}

func (b *Bridge) RenderConversations(items []messenger.ListItem) {
	b.post(conversationsMsg{items: items})
}

func (b *Bridge) ShowHeader(c domain.ConversationSummary) { b.post(headerMsg{conv: c}) }
func (b *Bridge) ShowLoading()                           { b.post(loadingMsg{}) }
func (b *Bridge) ReplaceMessages(msgs []messenger.Bubble) { b.post(replaceMsg{bubbles: msgs}) }
func (b *Bridge) AppendMessage(m messenger.Bubble)        { b.post(appendMsg{bubble: m}) }
func (b *Bridge) ClearPane()                             { b.post(clearMsg{}) }

// SocketState is meant to be wired as the inbox socket's OnState callback.
func (b *Bridge) SocketState(s inbox.State) { b.post(stateMsg{state: s}) }
