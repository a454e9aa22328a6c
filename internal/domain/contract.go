package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Wire contracts shared by the inbox client and the dev backend. Every payload
// that crosses the network is decoded into one of these types and validated
// before use.

// UserSummary is a single search result card.
type UserSummary struct {
	ID              ID     `json:"id"`
	Username        string `json:"username"`
	FullName        string `json:"full_name"`
	Email           string `json:"email"`
	Role            string `json:"role,omitempty"`
	Location        string `json:"location,omitempty"`
	AvatarURL       string `json:"avatar_url,omitempty"`
	Joined          string `json:"joined,omitempty"`
	Bio             string `json:"bio,omitempty"`
	EnrolledCourses *int   `json:"enrolled_courses,omitempty"`
}

func (u UserSummary) Validate() error {
	if u.ID <= 0 || u.Username == "" {
		return fmt.Errorf("%w: user summary needs id and username", ErrMalformedResponse)
	}
	return nil
}

// DisplayName falls back to the username when no full name is set.
func (u UserSummary) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

// Profile builds the partial profile shown while a fresh one is fetched.
func (u UserSummary) Profile() *Profile {
	p := &Profile{
		ID:        u.ID,
		Username:  u.Username,
		FullName:  u.FullName,
		Role:      u.Role,
		Email:     u.Email,
		Location:  u.Location,
		Joined:    u.Joined,
		Bio:       u.Bio,
		AvatarURL: u.AvatarURL,
	}
	if u.EnrolledCourses != nil {
		p.Stats = StudentStats{EnrolledCourses: *u.EnrolledCourses}
	}
	return p
}

// SearchResponse is the body of GET /users/search/.
type SearchResponse struct {
	Results []UserSummary `json:"results"`
}

func (r SearchResponse) Validate() error {
	for i, u := range r.Results {
		if err := u.Validate(); err != nil {
			return fmt.Errorf("result %d: %w", i, err)
		}
	}
	return nil
}

// CourseRef is a course listed on a teacher profile.
type CourseRef struct {
	ID    ID     `json:"id"`
	Title string `json:"title"`
}

// ProfileStats is either StudentStats or TeacherStats.
type ProfileStats interface {
	profileStats()
}

// StudentStats carries the number of enrolled courses.
type StudentStats struct {
	EnrolledCourses int
}

// TeacherStats carries the list of taught courses.
type TeacherStats struct {
	Courses []CourseRef
}

func (StudentStats) profileStats() {}
func (TeacherStats) profileStats() {}

// Profile is the body of GET /api/users/<username>/. Stats is nil when the
// payload carries neither student nor teacher stats.
type Profile struct {
	ID        ID
	Username  string
	FullName  string
	Role      string
	Email     string
	Location  string
	Joined    string
	Bio       string
	AvatarURL string
	Stats     ProfileStats
}

type profileWire struct {
	ID              ID          `json:"id"`
	Username        string      `json:"username"`
	FullName        string      `json:"full_name"`
	Role            string      `json:"role"`
	Email           string      `json:"email"`
	Location        string      `json:"location"`
	Joined          string      `json:"joined"`
	Bio             string      `json:"bio"`
	AvatarURL       string      `json:"avatar_url"`
	EnrolledCourses *int        `json:"enrolled_courses"`
	TeachingCourses []CourseRef `json:"teaching_courses,omitempty"`
}

func (p *Profile) UnmarshalJSON(b []byte) error {
	var w profileWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	if w.EnrolledCourses != nil && len(w.TeachingCourses) > 0 {
		return fmt.Errorf("%w: profile carries both student and teacher stats", ErrMalformedResponse)
	}
	*p = Profile{
		ID:        w.ID,
		Username:  w.Username,
		FullName:  w.FullName,
		Role:      w.Role,
		Email:     w.Email,
		Location:  w.Location,
		Joined:    w.Joined,
		Bio:       w.Bio,
		AvatarURL: w.AvatarURL,
	}
	switch {
	case w.EnrolledCourses != nil:
		p.Stats = StudentStats{EnrolledCourses: *w.EnrolledCourses}
	case len(w.TeachingCourses) > 0:
		p.Stats = TeacherStats{Courses: w.TeachingCourses}
	}
	return nil
}

func (p Profile) MarshalJSON() ([]byte, error) {
	w := profileWire{
		ID:        p.ID,
		Username:  p.Username,
		FullName:  p.FullName,
		Role:      p.Role,
		Email:     p.Email,
		Location:  p.Location,
		Joined:    p.Joined,
		Bio:       p.Bio,
		AvatarURL: p.AvatarURL,
	}
	switch s := p.Stats.(type) {
	case StudentStats:
		n := s.EnrolledCourses
		w.EnrolledCourses = &n
	case TeacherStats:
		w.TeachingCourses = s.Courses
	}
	return json.Marshal(w)
}

func (p *Profile) Validate() error {
	if p.Username == "" {
		return fmt.Errorf("%w: profile needs a username", ErrMalformedResponse)
	}
	return nil
}

// DisplayName falls back to the username when no full name is set.
func (p *Profile) DisplayName() string {
	if p.FullName != "" {
		return p.FullName
	}
	return p.Username
}

// LegacyProfile is the body of GET /accounts/profile/<user_id>/.
type LegacyProfile struct {
	Avatar   string `json:"avatar"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

func (p LegacyProfile) Validate() error {
	if p.FullName == "" && p.Role == "" {
		return fmt.Errorf("%w: empty legacy profile", ErrMalformedResponse)
	}
	return nil
}

// ConversationSummary is one entry of the conversation list. The client keeps
// these as its cache and mutates preview fields in place.
type ConversationSummary struct {
	ID          ID     `json:"id"`
	UserID      ID     `json:"user_id,omitempty"`
	Name        string `json:"name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	Role        string `json:"role,omitempty"`
	LastMessage string `json:"last_message"`
	SenderID    ID     `json:"sender_id,omitempty"`
	Time        string `json:"time"`
}

type conversationAlias ConversationSummary

// UnmarshalJSON also accepts the older "conversation_id" and "avatar" keys.
func (c *ConversationSummary) UnmarshalJSON(b []byte) error {
	var aux struct {
		conversationAlias
		ConversationID ID     `json:"conversation_id"`
		Avatar         string `json:"avatar"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*c = ConversationSummary(aux.conversationAlias)
	if c.ID == 0 {
		c.ID = aux.ConversationID
	}
	if c.AvatarURL == "" {
		c.AvatarURL = aux.Avatar
	}
	return nil
}

func (c ConversationSummary) Validate() error {
	if c.ID <= 0 {
		return fmt.Errorf("%w: conversation without id", ErrMalformedResponse)
	}
	return nil
}

// ConversationsResponse is the body of GET /chat/conversations/.
type ConversationsResponse struct {
	Conversations []ConversationSummary `json:"conversations"`
}

func (r ConversationsResponse) Validate() error {
	for i, c := range r.Conversations {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("conversation %d: %w", i, err)
		}
	}
	return nil
}

// Message is a chat message as rendered by the client.
type Message struct {
	ID             MessageID `json:"id"`
	ConversationID ID        `json:"conversation_id,omitempty"`
	SenderID       ID        `json:"sender_id"`
	Content        string    `json:"content"`
	CreatedAt      string    `json:"created_at"`
}

type messageAlias Message

// UnmarshalJSON also accepts the older "sender" and "time" keys.
func (m *Message) UnmarshalJSON(b []byte) error {
	var aux struct {
		messageAlias
		Sender ID     `json:"sender"`
		Time   string `json:"time"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*m = Message(aux.messageAlias)
	if m.SenderID == 0 {
		m.SenderID = aux.Sender
	}
	if m.CreatedAt == "" {
		m.CreatedAt = aux.Time
	}
	return nil
}

// HistoryResponse is the body of GET /chat/history/<id>/.
type HistoryResponse struct {
	Messages []Message `json:"messages"`
}

// StartResponse is the body of GET /chat/start/<user_id>/.
type StartResponse struct {
	ConversationID ID `json:"conversation_id"`
}

func (r StartResponse) Validate() error {
	if r.ConversationID <= 0 {
		return fmt.Errorf("%w: missing conversation_id", ErrMalformedResponse)
	}
	return nil
}

// FrameTypeSend is the type of a client->server send frame.
const FrameTypeSend = "send"

// SendFrame is sent by the client over the inbox socket.
type SendFrame struct {
	Type           string `json:"type"`
	ConversationID ID     `json:"conversation_id"`
	Message        string `json:"message"`
}

// NewSendFrame trims text and rejects empty messages.
func NewSendFrame(conversationID ID, text string) (SendFrame, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return SendFrame{}, ErrEmptyMessage
	}
	if conversationID <= 0 {
		return SendFrame{}, ErrNoActiveConversation
	}
	return SendFrame{Type: FrameTypeSend, ConversationID: conversationID, Message: text}, nil
}

// LegacySendFrame is sent over a per-conversation socket.
type LegacySendFrame struct {
	Message string `json:"message"`
}

// InboxFrame is pushed by the server over the inbox socket.
type InboxFrame struct {
	ConversationID ID        `json:"conversation_id"`
	MessageID      MessageID `json:"message_id,omitempty"`
	Message        string    `json:"message"`
	SenderID       ID        `json:"sender_id"`
	CreatedAt      string    `json:"created_at,omitempty"`
}

func (f InboxFrame) Validate() error {
	if f.ConversationID <= 0 {
		return fmt.Errorf("%w: missing conversation_id", ErrMalformedFrame)
	}
	return nil
}

// ParseInboxFrame decodes and validates a raw socket payload.
func ParseInboxFrame(raw []byte) (InboxFrame, error) {
	var f InboxFrame
	if err := json.Unmarshal(raw, &f); err != nil {
		return InboxFrame{}, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	if err := f.Validate(); err != nil {
		return InboxFrame{}, err
	}
	return f, nil
}

// Message converts the frame into a renderable message.
func (f InboxFrame) AsMessage() Message {
	return Message{
		ID:             f.MessageID,
		ConversationID: f.ConversationID,
		SenderID:       f.SenderID,
		Content:        f.Message,
		CreatedAt:      f.CreatedAt,
	}
}

// ChatEvent is pushed over a legacy per-conversation socket.
type ChatEvent struct {
	Message  string `json:"message"`
	SenderID ID     `json:"sender_id"`
}

// ErrorFrame reports a rejected client frame.
type ErrorFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// NewErrorFrame builds an error frame with the given text.
func NewErrorFrame(msg string) ErrorFrame {
	return ErrorFrame{Type: "error", Message: msg}
}

// AuthToken is the body of POST /api/auth/login.
type AuthToken struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	User        UserSummary `json:"user"`
}
