package messenger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"elearning_go/internal/domain"
	"elearning_go/internal/observability"
)

const refreshTimeout = 10 * time.Second

// API is the subset of the backend the messenger needs.
type API interface {
	ListConversations(ctx context.Context) ([]domain.ConversationSummary, error)
	History(ctx context.Context, conversationID domain.ID) ([]domain.Message, error)
}

// Socket is the inbox connection. Connect must be idempotent.
type Socket interface {
	Connect(ctx context.Context)
	Close() error
	Send(v any) error
}

// Client keeps the conversation list and the open conversation consistent
// with events arriving on the inbox socket. Unread counts and the seen set
// outlive Close so a reopened client does not re-render old frames.
type Client struct {
	api    API
	socket Socket
	view   View
	me     domain.ID
	log    zerolog.Logger

	mu            sync.Mutex
	open          bool
	conversations []domain.ConversationSummary
	active        domain.ID
	loading       bool
	pending       []domain.Message
	selectGen     uint64
	refreshing    bool
	unread        map[domain.ID]int
	seen          map[domain.MessageID]struct{}
}

func New(api API, socket Socket, view View, currentUserID domain.ID, logger zerolog.Logger) *Client {
	return &Client{
		api:    api,
		socket: socket,
		view:   view,
		me:     currentUserID,
		log:    observability.WithComponent(logger, "messenger"),
		unread: make(map[domain.ID]int),
		seen:   make(map[domain.MessageID]struct{}),
	}
}

// Open connects the socket, loads the conversation list and, when jumpTo is
// non-zero, selects that conversation.
func (c *Client) Open(ctx context.Context, jumpTo domain.ID) error {
	c.socket.Connect(ctx)

	list, err := c.api.ListConversations(ctx)
	if err != nil {
		c.log.Error().Err(err).Msg("load conversations")
		return fmt.Errorf("load conversations: %w", err)
	}

	c.mu.Lock()
	c.open = true
	c.conversations = list
	items := c.itemsLocked()
	c.mu.Unlock()

	c.view.RenderConversations(items)

	if jumpTo != 0 {
		return c.Select(ctx, jumpTo)
	}
	return nil
}

// Close disconnects the socket and clears the pane.
func (c *Client) Close() {
	if err := c.socket.Close(); err != nil {
		c.log.Debug().Err(err).Msg("close inbox socket")
	}

	c.mu.Lock()
	c.open = false
	c.conversations = nil
	c.active = 0
	c.loading = false
	c.pending = nil
	c.selectGen++
	c.mu.Unlock()

	c.view.ClearPane()
}

// Select makes id the active conversation and loads its history.
func (c *Client) Select(ctx context.Context, id domain.ID) error {
	c.mu.Lock()
	c.active = id
	c.unread[id] = 0
	c.loading = true
	c.pending = nil
	c.selectGen++
	gen := c.selectGen
	conv := domain.ConversationSummary{ID: id}
	if i := c.indexLocked(id); i >= 0 {
		conv = c.conversations[i]
	}
	items := c.itemsLocked()
	c.mu.Unlock()

	c.view.ShowHeader(conv)
	c.view.RenderConversations(items)
	c.view.ShowLoading()

	history, err := c.api.History(ctx, id)
	if err != nil {
		c.mu.Lock()
		if c.selectGen == gen {
			c.loading = false
			c.pending = nil
		}
		c.mu.Unlock()
		c.log.Error().Err(err).Stringer("conversation_id", id).Msg("load history")
		return fmt.Errorf("load history: %w", err)
	}

	c.mu.Lock()
	if c.selectGen != gen {
		c.mu.Unlock()
		return nil
	}
	inHistory := make(map[domain.MessageID]struct{}, len(history))
	bubbles := make([]Bubble, 0, len(history)+len(c.pending))
	for _, m := range history {
		if m.ID != "" {
			c.seen[m.ID] = struct{}{}
			inHistory[m.ID] = struct{}{}
		}
		bubbles = append(bubbles, c.bubble(m))
	}
	for _, m := range c.pending {
		if _, dup := inHistory[m.ID]; dup && m.ID != "" {
			continue
		}
		bubbles = append(bubbles, c.bubble(m))
	}
	c.loading = false
	c.pending = nil
	c.mu.Unlock()

	c.view.ReplaceMessages(bubbles)
	return nil
}

// Send posts text to the active conversation. The bubble is rendered when
// the server echo arrives; only the list preview is updated here.
func (c *Client) Send(text string) error {
	c.mu.Lock()
	active := c.active
	c.mu.Unlock()

	frame, err := domain.NewSendFrame(active, text)
	if err != nil {
		return err
	}
	if err := c.socket.Send(frame); err != nil {
		return err
	}

	c.mu.Lock()
	if i := c.indexLocked(frame.ConversationID); i >= 0 {
		c.conversations[i].LastMessage = frame.Message
		c.conversations[i].SenderID = c.me
		c.conversations[i].Time = time.Now().Format("15:04")
		c.moveToTopLocked(i)
	}
	items := c.itemsLocked()
	c.mu.Unlock()

	c.view.RenderConversations(items)
	return nil
}

// HandleFrame processes one raw inbox socket payload. Malformed frames and
// already seen message ids are dropped.
func (c *Client) HandleFrame(raw []byte) {
	f, err := domain.ParseInboxFrame(raw)
	if err != nil {
		c.log.Debug().Err(err).Msg("dropping inbox frame")
		return
	}

	var (
		appended *Bubble
		refresh  bool
	)

	c.mu.Lock()
	if f.MessageID != "" {
		if _, dup := c.seen[f.MessageID]; dup {
			c.mu.Unlock()
			return
		}
		c.seen[f.MessageID] = struct{}{}
	}

	i := c.indexLocked(f.ConversationID)
	if f.Message != "" {
		if i >= 0 {
			conv := &c.conversations[i]
			conv.LastMessage = f.Message
			conv.SenderID = f.SenderID
			if f.CreatedAt != "" {
				conv.Time = f.CreatedAt
			}
			c.moveToTopLocked(i)
		}
		switch {
		case f.ConversationID == c.active && c.loading:
			c.pending = append(c.pending, f.AsMessage())
		case f.ConversationID == c.active:
			b := c.bubble(f.AsMessage())
			appended = &b
		case f.SenderID != c.me:
			c.unread[f.ConversationID]++
		}
	}
	if i < 0 && c.open && !c.refreshing {
		c.refreshing = true
		refresh = true
	}
	open := c.open
	items := c.itemsLocked()
	c.mu.Unlock()

	if !open {
		return
	}
	if appended != nil {
		c.view.AppendMessage(*appended)
	}
	c.view.RenderConversations(items)

	if refresh {
		// runs off the socket read goroutine
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
			defer cancel()
			c.refresh(ctx)
		}()
	}
}

// refresh reloads the conversation list, keeping unread counts.
func (c *Client) refresh(ctx context.Context) {
	list, err := c.api.ListConversations(ctx)

	c.mu.Lock()
	c.refreshing = false
	if err != nil || !c.open {
		c.mu.Unlock()
		if err != nil {
			c.log.Warn().Err(err).Msg("refresh conversations")
		}
		return
	}
	c.conversations = list
	items := c.itemsLocked()
	c.mu.Unlock()

	c.view.RenderConversations(items)
}

func (c *Client) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

func (c *Client) ActiveID() domain.ID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

func (c *Client) Unread(id domain.ID) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.unread[id]
}

// Conversations returns a copy of the cached list in display order.
func (c *Client) Conversations() []domain.ConversationSummary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.ConversationSummary(nil), c.conversations...)
}

func (c *Client) indexLocked(id domain.ID) int {
	for i, conv := range c.conversations {
		if conv.ID == id {
			return i
		}
	}
	return -1
}

func (c *Client) moveToTopLocked(i int) {
	if i <= 0 {
		return
	}
	conv := c.conversations[i]
	copy(c.conversations[1:i+1], c.conversations[:i])
	c.conversations[0] = conv
}

func (c *Client) itemsLocked() []ListItem {
	items := make([]ListItem, len(c.conversations))
	for i, conv := range c.conversations {
		item := ListItem{
			Conversation: conv,
			Preview:      c.preview(conv),
			Active:       conv.ID == c.active,
		}
		if !item.Active {
			item.Unread = c.unread[conv.ID]
		}
		items[i] = item
	}
	return items
}

func (c *Client) preview(conv domain.ConversationSummary) string {
	if conv.LastMessage == "" {
		return ""
	}
	if c.me != 0 && conv.SenderID == c.me {
		return "You: " + conv.LastMessage
	}
	return conv.LastMessage
}

func (c *Client) bubble(m domain.Message) Bubble {
	return Bubble{Message: m, Mine: c.me != 0 && m.SenderID == c.me}
}
