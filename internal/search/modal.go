package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"elearning_go/internal/domain"
	"elearning_go/internal/observability"
)

const (
	DefaultDebounce = 300 * time.Millisecond
	ErrorText       = "Search error. Try again."
)

// ErrNoSelection is returned by MessageSelected when no profile is shown.
var ErrNoSelection = errors.New("no user selected")

type API interface {
	SearchUsers(ctx context.Context, query string, role domain.Role) ([]domain.UserSummary, error)
	StartConversation(ctx context.Context, userID domain.ID) (domain.ID, error)
}

// Profiles is the profile pane the modal pivots into.
type Profiles interface {
	Show(ctx context.Context, username string, cached *domain.UserSummary) error
	SelectedUserID() domain.ID
	Reset()
}

// Chat opens the messenger, optionally on a given conversation.
type Chat interface {
	Open(ctx context.Context, jumpTo domain.ID) error
}

type View interface {
	ShowSearchPane()
	ShowProfilePane()
	FocusInput()
	Clear()
	ShowSearching()
	ShowResults(role domain.Role, users []domain.UserSummary)
	ShowEmpty(role domain.Role)
	ShowError(msg string)
	Hide()
}

// EmptyText is the message shown when a search has no results.
func EmptyText(role domain.Role) string {
	switch role {
	case domain.RoleStudent:
		return "No students found"
	case domain.RoleTeacher:
		return "No teachers found"
	default:
		return "No users found"
	}
}

// Modal is the user search dialog.
type Modal struct {
	api      API
	profiles Profiles
	chat     Chat
	view     View
	debounce *Debouncer
	log      zerolog.Logger

	mu      sync.Mutex
	base    context.Context
	role    domain.Role
	input   string
	seq     uint64
	cancel  context.CancelFunc
	results []domain.UserSummary
}

func NewModal(api API, profiles Profiles, chat Chat, view View, debounce *Debouncer, logger zerolog.Logger) *Modal {
	if debounce == nil {
		debounce = NewDebouncer(DefaultDebounce, nil)
	}
	return &Modal{
		api:      api,
		profiles: profiles,
		chat:     chat,
		view:     view,
		debounce: debounce,
		log:      observability.WithComponent(logger, "search"),
		base:     context.Background(),
		role:     domain.RoleStudent,
	}
}

// Open resets the dialog. Debounced searches run under ctx.
func (m *Modal) Open(ctx context.Context) {
	m.debounce.Cancel()
	m.mu.Lock()
	m.base = ctx
	m.input = ""
	m.results = nil
	m.abortLocked()
	m.mu.Unlock()

	m.profiles.Reset()
	m.view.Clear()
	m.view.ShowSearchPane()
	m.view.FocusInput()
}

// SetRole switches the role filter and re-runs the search for the current
// input.
func (m *Modal) SetRole(ctx context.Context, role domain.Role) error {
	m.mu.Lock()
	m.role = role
	q := m.input
	m.mu.Unlock()

	if q == "" {
		return nil
	}
	m.debounce.Cancel()
	return m.Query(ctx, q)
}

// Input records the typed text and schedules a search once typing pauses.
func (m *Modal) Input(text string) {
	q := strings.TrimSpace(text)
	m.debounce.Cancel()

	m.mu.Lock()
	m.input = q
	base := m.base
	if q == "" {
		m.results = nil
		m.abortLocked()
	}
	m.mu.Unlock()

	if q == "" {
		m.view.Clear()
		return
	}
	m.view.ShowSearching()
	m.debounce.Trigger(func() {
		_ = m.Query(base, q)
	})
}

// Query runs one search immediately. A newer Query cancels this one and its
// response is discarded.
func (m *Modal) Query(ctx context.Context, q string) error {
	q = strings.TrimSpace(q)
	if q == "" {
		m.view.Clear()
		return nil
	}

	m.mu.Lock()
	m.abortLocked()
	seq := m.seq
	qctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	role := m.role
	m.mu.Unlock()
	defer cancel()

	users, err := m.api.SearchUsers(qctx, q, role)

	m.mu.Lock()
	if seq != m.seq {
		m.mu.Unlock()
		m.log.Debug().Str("query", q).Msg("discarding stale search response")
		return nil
	}
	m.cancel = nil
	if err == nil {
		m.results = users
	}
	m.mu.Unlock()

	switch {
	case err != nil:
		m.log.Warn().Err(err).Str("query", q).Msg("search failed")
		m.view.ShowError(ErrorText)
		return fmt.Errorf("search %q: %w", q, err)
	case len(users) == 0:
		m.view.ShowEmpty(role)
	default:
		m.view.ShowResults(role, users)
	}
	return nil
}

// OpenResult pivots into the profile pane for user.
func (m *Modal) OpenResult(ctx context.Context, user domain.UserSummary) error {
	m.view.ShowProfilePane()
	return m.profiles.Show(ctx, user.Username, &user)
}

// MessageSelected starts a conversation with the profile on screen and
// opens the messenger on it.
func (m *Modal) MessageSelected(ctx context.Context) (domain.ID, error) {
	userID := m.profiles.SelectedUserID()
	if userID == 0 {
		return 0, ErrNoSelection
	}
	convID, err := m.api.StartConversation(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("start conversation with %s: %w", userID, err)
	}
	m.Close()
	if err := m.chat.Open(ctx, convID); err != nil {
		return convID, err
	}
	return convID, nil
}

// Back returns from the profile pane to the results.
func (m *Modal) Back() {
	m.profiles.Reset()
	m.view.ShowSearchPane()
}

func (m *Modal) Close() {
	m.debounce.Cancel()
	m.mu.Lock()
	m.abortLocked()
	m.mu.Unlock()
	m.profiles.Reset()
	m.view.Hide()
}

// Results returns the last successful result set.
func (m *Modal) Results() []domain.UserSummary {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.UserSummary(nil), m.results...)
}

func (m *Modal) Role() domain.Role {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.role
}

// abortLocked cancels the in-flight query and invalidates its response.
func (m *Modal) abortLocked() {
	m.seq++
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}
