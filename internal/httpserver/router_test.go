package httpserver_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"elearning_go/internal/apiclient"
	"elearning_go/internal/config"
	"elearning_go/internal/domain"
	"elearning_go/internal/httpserver"
	"elearning_go/internal/inbox"
	"elearning_go/internal/messenger"
	"elearning_go/internal/observability"
	"elearning_go/internal/security"
	"elearning_go/internal/service"
	"elearning_go/internal/store"
	"elearning_go/internal/ws"
)

type backend struct {
	srv  *httptest.Server
	repo *store.Repositories
}

func newBackend(t *testing.T) *backend {
	t.Helper()
	cfg := &config.Config{
		AppName:                    "test",
		DBDriver:                   "sqlite",
		SQLitePath:                 ":memory:",
		CORSOrigins:                []string{"http://localhost:5173"},
		MaxMessagesPerConversation: 100,
	}
	repos, err := store.Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })

	enc, err := security.NewEncryptor([]byte("test-key"), nil)
	require.NoError(t, err)
	log := observability.Nop()
	auth := service.NewAuthService(repos.Users, security.NewTokenService("secret", time.Hour), security.NewPasswordHasher(4))
	chat := service.NewChatService(repos.Conversations, repos.Participants, repos.Messages, repos.Users, enc, cfg.MaxMessagesPerConversation, log)
	require.NoError(t, service.Seed(context.Background(), auth, repos.Users, repos.Courses, chat, log))

	srv := httptest.NewServer(httpserver.NewRouter(httpserver.Deps{
		Config:    cfg,
		Auth:      auth,
		Directory: service.NewDirectoryService(repos.Users, repos.Courses, 10),
		Chat:      chat,
		Hub:       ws.NewHub(),
		Presence:  repos.Users,
		Log:       log,
	}))
	t.Cleanup(srv.Close)
	return &backend{srv: srv, repo: repos}
}

func (b *backend) login(t *testing.T, username string) (*apiclient.Client, *domain.AuthToken) {
	t.Helper()
	c, err := apiclient.New(b.srv.URL)
	require.NoError(t, err)
	tok, err := c.Login(context.Background(), username, service.SamplePassword)
	require.NoError(t, err)
	return c, tok
}

func TestHealth(t *testing.T) {
	b := newBackend(t)
	resp, err := http.Get(b.srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))
}

func TestLoginFailures(t *testing.T) {
	b := newBackend(t)
	c, err := apiclient.New(b.srv.URL)
	require.NoError(t, err)

	_, err = c.Login(context.Background(), "ali", "wrong")
	assert.True(t, apiclient.IsStatus(err, http.StatusUnauthorized))

	_, err = c.ListConversations(context.Background())
	assert.True(t, apiclient.IsStatus(err, http.StatusUnauthorized))
}

func TestDirectoryEndpoints(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)
	c, _ := b.login(t, "prof")

	users, err := c.SearchUsers(ctx, "ali", domain.RoleStudent)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "ali", users[0].Username)
	require.NotNil(t, users[0].EnrolledCourses)

	_, err = c.SearchUsers(ctx, "ali", domain.Role("ADMIN"))
	assert.True(t, apiclient.IsStatus(err, http.StatusBadRequest))

	p, err := c.GetProfile(ctx, "prof")
	require.NoError(t, err)
	stats, ok := p.Stats.(domain.TeacherStats)
	require.True(t, ok)
	assert.Len(t, stats.Courses, 2)

	_, err = c.GetProfile(ctx, "ghost")
	assert.True(t, apiclient.IsStatus(err, http.StatusNotFound))

	legacy, err := c.LegacyProfile(ctx, users[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Student", legacy.Role)
}

func TestChatEndpoints(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)
	ali, aliTok := b.login(t, "ali")
	sam, _ := b.login(t, "sam")

	convs, err := ali.ListConversations(ctx)
	require.NoError(t, err)
	require.Len(t, convs, 1)

	msgs, err := ali.History(ctx, convs[0].ID)
	require.NoError(t, err)
	assert.Len(t, msgs, 2)

	_, err = sam.History(ctx, convs[0].ID)
	assert.True(t, apiclient.IsStatus(err, http.StatusForbidden))

	samProfile, err := sam.GetProfile(ctx, "sam")
	require.NoError(t, err)
	convID, err := ali.StartConversation(ctx, samProfile.ID)
	require.NoError(t, err)
	again, err := sam.StartConversation(ctx, aliTok.User.ID)
	require.NoError(t, err)
	assert.Equal(t, convID, again)

	f, err := sam.SendMessage(ctx, convID, "hello over http")
	require.NoError(t, err)
	assert.Equal(t, convID, f.ConversationID)

	convs, err = ali.ListConversations(ctx)
	require.NoError(t, err)
	require.Len(t, convs, 2)
	assert.Equal(t, convID, convs[0].ID)
	assert.Equal(t, "hello over http", convs[0].LastMessage)
}

type recordingView struct {
	mu      sync.Mutex
	items   []messenger.ListItem
	bubbles []messenger.Bubble
}

func (v *recordingView) RenderConversations(items []messenger.ListItem) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.items = items
}

func (v *recordingView) ShowHeader(domain.ConversationSummary) {}

func (v *recordingView) ShowLoading() {}

func (v *recordingView) ReplaceMessages(msgs []messenger.Bubble) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.bubbles = msgs
}

func (v *recordingView) AppendMessage(m messenger.Bubble) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.bubbles = append(v.bubbles, m)
}

func (v *recordingView) ClearPane() {}

func (v *recordingView) texts() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]string, 0, len(v.bubbles))
	for _, b := range v.bubbles {
		out = append(out, b.Content)
	}
	return out
}

type session struct {
	client *messenger.Client
	view   *recordingView
	socket *inbox.Socket
	raw    chan []byte
}

func openSession(t *testing.T, api *apiclient.Client, me domain.ID) *session {
	t.Helper()
	view := &recordingView{}
	s := &session{view: view, raw: make(chan []byte, 16)}
	connected := make(chan struct{}, 1)
	s.socket = inbox.New(inbox.Config{
		URL:    api.InboxURL(),
		Header: api.AuthHeader(),
		Policy: inbox.Policy{InitialDelay: 10 * time.Millisecond, MaxDelay: 50 * time.Millisecond, Multiplier: 2, MaxAttempts: 3},
		OnMessage: func(raw []byte) {
			select {
			case s.raw <- raw:
			default:
			}
			s.client.HandleFrame(raw)
		},
		OnState: func(st inbox.State) {
			if st == inbox.Connected {
				select {
				case connected <- struct{}{}:
				default:
				}
			}
		},
	})
	s.client = messenger.New(api, s.socket, view, me, observability.Nop())
	t.Cleanup(s.client.Close)

	require.NoError(t, s.client.Open(context.Background(), 0))
	select {
	case <-connected:
	case <-time.After(2 * time.Second):
		t.Fatal("inbox socket did not connect")
	}

	// an unsupported frame is answered once the server loop is registered
	require.NoError(t, s.socket.Send(map[string]string{"type": "ping"}))
	select {
	case raw := <-s.raw:
		require.Contains(t, string(raw), `"type":"error"`)
	case <-time.After(2 * time.Second):
		t.Fatal("no reply on inbox socket")
	}
	return s
}

func TestInboxRoundTrip(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)
	aliAPI, aliTok := b.login(t, "ali")
	profAPI, profTok := b.login(t, "prof")

	ali := openSession(t, aliAPI, aliTok.User.ID)
	prof := openSession(t, profAPI, profTok.User.ID)

	convs := ali.client.Conversations()
	require.Len(t, convs, 1)
	convID := convs[0].ID

	require.NoError(t, ali.client.Select(ctx, convID))
	assert.Len(t, ali.view.texts(), 2)

	require.NoError(t, ali.client.Send("see you friday"))

	// sender sees the echo exactly once
	assert.Eventually(t, func() bool {
		texts := ali.view.texts()
		return len(texts) == 3 && texts[2] == "see you friday"
	}, 2*time.Second, 10*time.Millisecond)

	// peer has the conversation closed, so it only counts as unread
	assert.Eventually(t, func() bool {
		return prof.client.Unread(convID) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Empty(t, prof.view.texts())
	assert.Equal(t, "see you friday", prof.client.Conversations()[0].LastMessage)
	assert.Equal(t, 0, ali.client.Unread(convID))

	history, err := profAPI.History(ctx, convID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "see you friday", history[2].Content)
}

func TestInboxRejectsBadFrames(t *testing.T) {
	b := newBackend(t)
	samAPI, _ := b.login(t, "sam")

	conn, _, err := websocket.DefaultDialer.Dial(samAPI.InboxURL(), samAPI.AuthHeader())
	require.NoError(t, err)
	defer conn.Close()

	// sam is not part of the seeded conversation
	convs, err := b.repo.Conversations.ListForUser(context.Background(), 1)
	require.NoError(t, err)
	require.NotEmpty(t, convs)
	require.NoError(t, conn.WriteJSON(domain.SendFrame{Type: domain.FrameTypeSend, ConversationID: domain.ID(convs[0].ID), Message: "hi"}))

	var ef domain.ErrorFrame
	require.NoError(t, conn.ReadJSON(&ef))
	assert.Equal(t, "error", ef.Type)
	assert.Equal(t, "not a participant in this conversation", ef.Message)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{")))
	require.NoError(t, conn.ReadJSON(&ef))
	assert.Equal(t, "malformed frame", ef.Message)
}

func TestSocketAuth(t *testing.T) {
	b := newBackend(t)
	url := "ws" + strings.TrimPrefix(b.srv.URL, "http") + "/ws/chat/inbox/"

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	aliAPI, _ := b.login(t, "ali")
	conn, _, err := websocket.DefaultDialer.Dial(url+"?token="+aliAPI.Token(), nil)
	require.NoError(t, err)
	conn.Close()

	h := http.Header{}
	h.Set("Origin", "http://evil.example")
	_, resp, err = websocket.DefaultDialer.Dial(url+"?token="+aliAPI.Token(), h)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestLegacyConversationSocket(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)
	aliAPI, _ := b.login(t, "ali")
	profAPI, _ := b.login(t, "prof")
	samAPI, _ := b.login(t, "sam")

	convs, err := aliAPI.ListConversations(ctx)
	require.NoError(t, err)
	convID := convs[0].ID

	_, resp, err := websocket.DefaultDialer.Dial(samAPI.ConversationSocketURL(convID), samAPI.AuthHeader())
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	legacy, _, err := websocket.DefaultDialer.Dial(aliAPI.ConversationSocketURL(convID), aliAPI.AuthHeader())
	require.NoError(t, err)
	defer legacy.Close()
	inboxConn, _, err := websocket.DefaultDialer.Dial(profAPI.InboxURL(), profAPI.AuthHeader())
	require.NoError(t, err)
	defer inboxConn.Close()

	var ef domain.ErrorFrame
	require.NoError(t, inboxConn.WriteJSON(map[string]string{"type": "ping"}))
	require.NoError(t, inboxConn.ReadJSON(&ef))
	assert.Equal(t, "unsupported frame type", ef.Message)

	require.NoError(t, legacy.WriteJSON(domain.LegacySendFrame{Message: "from the old page"}))

	var ev domain.ChatEvent
	require.NoError(t, legacy.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, legacy.ReadJSON(&ev))
	assert.Equal(t, "from the old page", ev.Message)

	var f domain.InboxFrame
	require.NoError(t, inboxConn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, inboxConn.ReadJSON(&f))
	assert.Equal(t, convID, f.ConversationID)
	assert.Equal(t, "from the old page", f.Message)
}
