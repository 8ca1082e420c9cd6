package pg

import (
	"context"
	"database/sql"
	"errors"
	"time"

	internal_errors "github.com/askchopper-dev/askchopper/internal/errors"

	"github.com/askchopper-dev/askchopper/internal/domain"
	"github.com/lib/pq"
)

// Saves message to db. Fields other than SessionId/MessageType/Content may
// be pre-populated for assistant turns written at run completion.
func (s *Storage) CreateMessage(ctx context.Context, msg *domain.ChatMessage) (int64, error) {
	createdTs := time.Now().UTC().Round(time.Microsecond) // database anyway round to microsecond

	var id int64
	err := s.db.QueryRowContext(ctx, `
	INSERT INTO chat_messages(session_id, message_type, content, formatted_content, has_attachments, openai_thread_id, openai_message_id, created_at, response_time_ms)
	VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9)
	RETURNING id`,
		msg.SessionId, msg.MessageType, msg.Content, msg.FormattedContent, msg.HasAttachments,
		msg.OpenAIThreadId, msg.OpenAIMessageId, createdTs, msg.ResponseTimeMs).Scan(&id)
	if err != nil {
		return -1, err
	}
	msg.Id = id
	msg.CreatedAt = createdTs
	return id, nil
}

func (s *Storage) GetMessage(ctx context.Context, id int64) (*domain.ChatMessage, error) {
	var msg domain.ChatMessage
	err := s.db.QueryRowContext(ctx, `
	SELECT id, session_id, message_type, content, formatted_content, has_attachments,
	       openai_thread_id, openai_message_id, created_at, response_time_ms
	FROM chat_messages
	WHERE id = $1`, id).Scan(
		&msg.Id, &msg.SessionId, &msg.MessageType, &msg.Content, &msg.FormattedContent,
		&msg.HasAttachments, &msg.OpenAIThreadId, &msg.OpenAIMessageId, &msg.CreatedAt, &msg.ResponseTimeMs)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &internal_errors.ErrorWithStatusCode{Message: "Message not found", StatusCode: 404}
		}
		return nil, err
	}

	if err := s.enrichMessagesWithAttachments(ctx, map[int64]*domain.ChatMessage{msg.Id: &msg}); err != nil {
		return nil, err
	}
	return &msg, nil
}

// GetHistory returns all turns of a session ordered by creation time,
// ties broken by id.
func (s *Storage) GetHistory(ctx context.Context, sessionID string) ([]*domain.ChatMessage, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT id, session_id, message_type, content, formatted_content, has_attachments,
	       openai_thread_id, openai_message_id, created_at, response_time_ms
	FROM chat_messages
	WHERE session_id = $1
	ORDER BY created_at, id`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []*domain.ChatMessage
	idToMessage := make(map[int64]*domain.ChatMessage)
	for rows.Next() {
		var msg domain.ChatMessage
		if err := rows.Scan(
			&msg.Id, &msg.SessionId, &msg.MessageType, &msg.Content, &msg.FormattedContent,
			&msg.HasAttachments, &msg.OpenAIThreadId, &msg.OpenAIMessageId, &msg.CreatedAt, &msg.ResponseTimeMs); err != nil {
			return nil, err
		}
		history = append(history, &msg)
		idToMessage[msg.Id] = &msg
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.enrichMessagesWithAttachments(ctx, idToMessage); err != nil {
		return nil, err
	}
	return history, nil
}

// LatestThreadID returns the most recent non-null remote thread id of a
// session, or empty string when the session never crossed the remote
// boundary.
func (s *Storage) LatestThreadID(ctx context.Context, sessionID string) (string, error) {
	var threadID string
	err := s.db.QueryRowContext(ctx, `
	SELECT openai_thread_id
	FROM chat_messages
	WHERE session_id = $1 AND openai_thread_id IS NOT NULL
	ORDER BY created_at DESC, id DESC
	LIMIT 1`, sessionID).Scan(&threadID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return threadID, nil
}

// SetRemoteCorrelation back-fills the provider thread/message ids on a turn
// exactly once. A second call is rejected to keep the ledger append-only.
func (s *Storage) SetRemoteCorrelation(ctx context.Context, id int64, threadID, messageID string) error {
	result, err := s.db.ExecContext(ctx, `
	UPDATE chat_messages SET
		openai_thread_id = $2,
		openai_message_id = $3
	WHERE id = $1 AND openai_message_id IS NULL`, id, threadID, messageID)
	if err != nil {
		return err
	}
	updated, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if updated == 0 {
		var exists bool
		if err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM chat_messages WHERE id = $1)`, id).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return domain.ErrMessageNotFound
		}
		return domain.ErrAlreadyCompleted
	}
	return nil
}

// DeleteMessage removes a turn and, via cascade, its attachment rows.
// Returns the attachments that were deleted so the caller can remove the
// backing files.
func (s *Storage) DeleteMessage(ctx context.Context, id int64) ([]*domain.Attachment, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback() // The rollback will be ignored if the tx has been committed later in the function.

	attachments, err := scanAttachments(tx.QueryContext(ctx, `
	SELECT id, message_id, filename, original_filename, file_path, file_size, mime_type, thumbnail_path, is_processed, uploaded_at
	FROM message_attachments
	WHERE message_id = $1
	ORDER BY id`, id))
	if err != nil {
		return nil, err
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM chat_messages WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if deleted == 0 {
		return nil, &internal_errors.ErrorWithStatusCode{Message: "Message not found", StatusCode: 404}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return attachments, nil
}

func (s *Storage) enrichMessagesWithAttachments(ctx context.Context, idToMessage map[int64]*domain.ChatMessage) error {
	if len(idToMessage) == 0 {
		return nil
	}

	messageIds := make([]int64, 0, len(idToMessage))
	for id := range idToMessage {
		messageIds = append(messageIds, id)
	}

	attachments, err := scanAttachments(s.db.QueryContext(ctx, `
	SELECT id, message_id, filename, original_filename, file_path, file_size, mime_type, thumbnail_path, is_processed, uploaded_at
	FROM message_attachments
	WHERE message_id = ANY($1)
	ORDER BY id`, pq.Array(messageIds)))
	if err != nil {
		return err
	}

	for _, att := range attachments {
		if msg, ok := idToMessage[att.MessageId]; ok {
			msg.Attachments = append(msg.Attachments, att)
		}
	}
	return nil
}
