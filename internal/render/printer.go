package render

import (
	"fmt"
	"io"
	"sync"

	"elearning_go/internal/domain"
	"elearning_go/internal/messenger"
	"elearning_go/internal/profile"
	"elearning_go/internal/search"
)

// Printer is a line-oriented view for non-interactive commands. It
// implements the search, profile and messenger views.
type Printer struct {
	mu sync.Mutex
	w  io.Writer
}

func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

var (
	_ search.View    = (*Printer)(nil)
	_ profile.View   = (*Printer)(nil)
	_ messenger.View = (*Printer)(nil)
)

func (p *Printer) println(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.w, s)
}

func (p *Printer) ShowSearchPane()  {}
func (p *Printer) ShowProfilePane() {}
func (p *Printer) FocusInput()      {}
func (p *Printer) Clear()           {}
func (p *Printer) Hide()            {}

func (p *Printer) ShowSearching() {
	p.println(MutedStyle.Render("Searching..."))
}

func (p *Printer) ShowResults(_ domain.Role, users []domain.UserSummary) {
	for _, u := range users {
		p.println(Card(u))
	}
}

func (p *Printer) ShowEmpty(role domain.Role) {
	p.println(MutedStyle.Render(search.EmptyText(role)))
}

func (p *Printer) ShowError(msg string) {
	p.println(ErrorStyle.Render(msg))
}

func (p *Printer) ShowProfile(prof *domain.Profile) {
	p.println(Profile(prof))
}

func (p *Printer) Alert(msg string) {
	p.println(ErrorStyle.Render("! " + msg))
}

func (p *Printer) RenderConversations(items []messenger.ListItem) {
	for _, it := range items {
		p.println(ListItem(it, 0))
	}
}

func (p *Printer) ShowHeader(c domain.ConversationSummary) {
	p.println(TitleStyle.Render("── " + c.Name + " ──"))
}

func (p *Printer) ShowLoading() {
	p.println(MutedStyle.Render("Loading..."))
}

func (p *Printer) ReplaceMessages(msgs []messenger.Bubble) {
	for _, m := range msgs {
		p.println(Bubble(m))
	}
}

func (p *Printer) AppendMessage(m messenger.Bubble) {
	p.println(Bubble(m))
}

func (p *Printer) ClearPane() {}
