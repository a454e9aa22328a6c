package domain

import (
	"context"
)

// Repositories return (nil, nil) when a single record is not found.

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	// Search matches query against full name, email and username. An empty
	// role matches every role.
	Search(ctx context.Context, query string, role Role, limit int) ([]*User, error)
	SetOnlineStatus(ctx context.Context, id int64, isOnline bool) error
}

// CourseRepository defines persistence operations for courses and enrollments.
type CourseRepository interface {
	Create(ctx context.Context, c *Course) error
	Enroll(ctx context.Context, courseID, studentID int64) error
	CountEnrollments(ctx context.Context, studentID int64) (int, error)
	ListTaught(ctx context.Context, teacherID int64) ([]*Course, error)
}

// ConversationRepository defines persistence operations for conversations.
type ConversationRepository interface {
	Create(ctx context.Context, c *Conversation, participantIDs []int64) error
	GetByID(ctx context.Context, id int64) (*Conversation, error)
	ListForUser(ctx context.Context, userID int64) ([]*Conversation, error)
	FindDirect(ctx context.Context, userA, userB int64) (*Conversation, error)
	Touch(ctx context.Context, id int64) error
}

// MessageRepository defines persistence operations for messages.
type MessageRepository interface {
	Create(ctx context.Context, m *MessageRecord) error
	// ListForConversation returns up to limit of the newest messages in
	// chronological order.
	ListForConversation(ctx context.Context, conversationID int64, limit int) ([]*MessageRecord, error)
	LastForConversation(ctx context.Context, conversationID int64) (*MessageRecord, error)
	PruneOld(ctx context.Context, conversationID int64, keepLimit int) error
}

// ParticipantRepository defines operations around conversation participants.
type ParticipantRepository interface {
	ListParticipants(ctx context.Context, conversationID int64) ([]*User, error)
	IsParticipant(ctx context.Context, conversationID, userID int64) (bool, error)
}
