package service

import (
	"context"

	"github.com/askchopper-dev/askchopper/internal/domain"
)

type LedgerService interface {
	Append(ctx context.Context, sessionID string, msgType domain.MessageType, content string) (*domain.ChatMessage, error)
	History(ctx context.Context, sessionID string) ([]*domain.ChatMessage, error)
	Get(ctx context.Context, id int64) (*domain.ChatMessage, error)
	Delete(ctx context.Context, id int64) error
}

type Ledger struct {
	storage          LedgerStorage
	files            AttachmentRemover
	validator        ContentValidator
	defaultSessionID string
}

type LedgerStorage interface {
	CreateMessage(ctx context.Context, msg *domain.ChatMessage) (int64, error)
	GetMessage(ctx context.Context, id int64) (*domain.ChatMessage, error)
	GetHistory(ctx context.Context, sessionID string) ([]*domain.ChatMessage, error)
	LatestThreadID(ctx context.Context, sessionID string) (string, error)
	SetRemoteCorrelation(ctx context.Context, id int64, threadID, messageID string) error
	DeleteMessage(ctx context.Context, id int64) ([]*domain.Attachment, error)
}

// AttachmentRemover disposes of an attachment's backing files once its row
// is gone. Satisfied by Attachments.
type AttachmentRemover interface {
	RemoveFiles(att *domain.Attachment)
}

type ContentValidator interface {
	Text(text string) error
}

func NewLedger(storage LedgerStorage, files AttachmentRemover, validator ContentValidator, defaultSessionID string) *Ledger {
	return &Ledger{storage, files, validator, defaultSessionID}
}

// Append records a turn. Unspecified sessions fall into the shared default
// session, matching the schema default.
func (l *Ledger) Append(ctx context.Context, sessionID string, msgType domain.MessageType, content string) (*domain.ChatMessage, error) {
	if err := l.validator.Text(content); err != nil {
		return nil, err
	}
	if sessionID == "" {
		sessionID = l.defaultSessionID
	}

	msg := &domain.ChatMessage{
		SessionId:   sessionID,
		MessageType: msgType,
		Content:     content,
	}
	if _, err := l.storage.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func (l *Ledger) History(ctx context.Context, sessionID string) ([]*domain.ChatMessage, error) {
	if sessionID == "" {
		sessionID = l.defaultSessionID
	}
	return l.storage.GetHistory(ctx, sessionID)
}

func (l *Ledger) Get(ctx context.Context, id int64) (*domain.ChatMessage, error) {
	return l.storage.GetMessage(ctx, id)
}

// Delete removes a turn together with its attachment rows, then hands the
// orphaned files to the attachment store for disposal.
func (l *Ledger) Delete(ctx context.Context, id int64) error {
	attachments, err := l.storage.DeleteMessage(ctx, id)
	if err != nil {
		return err
	}

	for _, att := range attachments {
		l.files.RemoveFiles(att)
	}
	return nil
}
