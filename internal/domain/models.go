package domain

import (
	"net/url"
	"time"
)

// User represents a platform account as stored by the backend.
type User struct {
	ID             int64     `db:"id"`
	Username       string    `db:"username"`
	Email          string    `db:"email"`
	FullName       string    `db:"full_name"`
	Role           Role      `db:"role"`
	Location       string    `db:"location"`
	Bio            string    `db:"bio"`
	PhotoURL       string    `db:"photo_url"`
	HashedPassword string    `db:"hashed_password"`
	IsActive       bool      `db:"is_active"`
	IsOnline       bool      `db:"is_online"`
	DateJoined     time.Time `db:"date_joined"`
	LastSeen       time.Time `db:"last_seen"`
}

// DisplayName falls back to the username when no full name is set.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

// AvatarURL returns the uploaded photo or a generated initials avatar.
func (u *User) AvatarURL() string {
	if u.PhotoURL != "" {
		return u.PhotoURL
	}
	q := url.Values{}
	q.Set("name", u.DisplayName())
	q.Set("background", "F3F4F6")
	q.Set("color", "4B5563")
	q.Set("size", "200")
	q.Set("font-size", "0.4")
	return "https://ui-avatars.com/api/?" + q.Encode()
}

// Course is a course owned by a teacher.
type Course struct {
	ID          int64     `db:"id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	TeacherID   int64     `db:"teacher_id"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// Conversation is a direct chat between participants.
type Conversation struct {
	ID        int64     `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// ConversationParticipant represents the membership of a user in a conversation.
type ConversationParticipant struct {
	UserID         int64      `db:"user_id"`
	ConversationID int64      `db:"conversation_id"`
	LastReadAt     *time.Time `db:"last_read_at"`
	JoinedAt       *time.Time `db:"joined_at"`
}

// MessageRecord is a persisted chat message.
type MessageRecord struct {
	ID             int64     `db:"id"`
	Content        string    `db:"content"` // encrypted at rest
	ConversationID int64     `db:"conversation_id"`
	SenderID       int64     `db:"sender_id"`
	CreatedAt      time.Time `db:"created_at"`
}
