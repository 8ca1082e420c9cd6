package domain

import (
	"database/sql"
	"time"
)

type MessageType string

const (
	MessageTypeUser      MessageType = "user"
	MessageTypeAssistant MessageType = "assistant"
)

// ChatMessage is one turn in a conversation session.
// Rows are append-only: after creation only FormattedContent, the remote
// correlation ids and ResponseTimeMs may be back-filled, exactly once,
// when the remote exchange completes.
type ChatMessage struct {
	Id               int64
	SessionId        string
	MessageType      MessageType
	Content          string
	FormattedContent sql.NullString
	HasAttachments   bool
	OpenAIThreadId   sql.NullString
	OpenAIMessageId  sql.NullString
	CreatedAt        time.Time
	ResponseTimeMs   sql.NullInt64

	Attachments []*Attachment
}
