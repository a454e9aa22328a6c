package profile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"elearning_go/internal/domain"
	"elearning_go/internal/observability"
)

// fetchTimeout bounds a shared profile fetch, which outlives the context of
// whichever caller started it.
const fetchTimeout = 10 * time.Second

// LoadFailedText is shown when a profile cannot be fetched and nothing
// cached was rendered.
const LoadFailedText = "Unable to load profile."

type API interface {
	GetProfile(ctx context.Context, username string) (*domain.Profile, error)
}

type View interface {
	ShowProfile(p *domain.Profile)
	Alert(msg string)
}

// Viewer renders a single profile at a time.
type Viewer struct {
	api   API
	view  View
	log   zerolog.Logger
	group singleflight.Group

	mu      sync.Mutex
	gen     uint64
	current *domain.Profile
}

func NewViewer(api API, view View, logger zerolog.Logger) *Viewer {
	return &Viewer{
		api:  api,
		view: view,
		log:  observability.WithComponent(logger, "profile"),
	}
}

// Show renders cached right away when given, then fetches the profile and
// renders the fresh copy. A Show superseded by a newer call or by Reset
// leaves the view alone.
func (v *Viewer) Show(ctx context.Context, username string, cached *domain.UserSummary) error {
	v.mu.Lock()
	v.gen++
	gen := v.gen
	v.current = nil
	var early *domain.Profile
	if cached != nil {
		early = cached.Profile()
		v.current = early
	}
	v.mu.Unlock()

	if early != nil {
		v.view.ShowProfile(early)
	}

	fresh, err := v.fetch(ctx, username)

	v.mu.Lock()
	if v.gen != gen {
		v.mu.Unlock()
		return nil
	}
	if err != nil {
		v.mu.Unlock()
		v.log.Warn().Err(err).Str("username", username).Msg("load profile")
		if early == nil {
			v.view.Alert(LoadFailedText)
		}
		return fmt.Errorf("load profile %q: %w", username, err)
	}
	v.current = fresh
	v.mu.Unlock()

	v.view.ShowProfile(fresh)
	return nil
}

// fetch joins or starts the single in-flight request for username. Each
// caller stops waiting when its own ctx ends; the request itself runs until
// fetchTimeout.
func (v *Viewer) fetch(ctx context.Context, username string) (*domain.Profile, error) {
	ch := v.group.DoChan(username, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()
		return v.api.GetProfile(fctx, username)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared {
			v.log.Debug().Str("username", username).Msg("profile fetch coalesced")
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*domain.Profile), nil
	}
}

// Current returns the profile on screen, or nil.
func (v *Viewer) Current() *domain.Profile {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current
}

// SelectedUserID is the id of the profile on screen, or zero.
func (v *Viewer) SelectedUserID() domain.ID {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.current == nil {
		return 0
	}
	return v.current.ID
}

// Reset forgets the current profile and discards in-flight fetches.
func (v *Viewer) Reset() {
	v.mu.Lock()
	v.gen++
	v.current = nil
	v.mu.Unlock()
}
