package handler

import (
	"time"

	"github.com/askchopper-dev/askchopper/internal/domain"
)

// Presentation shapes for API responses. Nullable DB columns become
// omitted JSON fields instead of {String, Valid} wrappers.

type messageJSON struct {
	Id               int64              `json:"id"`
	SessionId        string             `json:"session_id"`
	MessageType      domain.MessageType `json:"message_type"`
	Content          string             `json:"content"`
	FormattedContent string             `json:"formatted_content,omitempty"`
	HasAttachments   bool               `json:"has_attachments"`
	CreatedAt        time.Time          `json:"created_at"`
	ResponseTimeMs   *int64             `json:"response_time_ms,omitempty"`
	Attachments      []attachmentJSON   `json:"attachments,omitempty"`
}

type attachmentJSON struct {
	Id               int64   `json:"id"`
	OriginalFilename string  `json:"original_filename"`
	MimeType         string  `json:"mime_type"`
	FileSize         int64   `json:"file_size"`
	Url              string  `json:"url"`
	ThumbnailUrl     *string `json:"thumbnail_url,omitempty"`
}

type chatResponseJSON struct {
	UserMessage      messageJSON `json:"user_message"`
	AssistantMessage messageJSON `json:"assistant_message"`
}

func renderMessage(msg *domain.ChatMessage) messageJSON {
	out := messageJSON{
		Id:             msg.Id,
		SessionId:      msg.SessionId,
		MessageType:    msg.MessageType,
		Content:        msg.Content,
		HasAttachments: msg.HasAttachments,
		CreatedAt:      msg.CreatedAt,
	}
	if msg.FormattedContent.Valid {
		out.FormattedContent = msg.FormattedContent.String
	}
	if msg.ResponseTimeMs.Valid {
		ms := msg.ResponseTimeMs.Int64
		out.ResponseTimeMs = &ms
	}
	for _, att := range msg.Attachments {
		out.Attachments = append(out.Attachments, renderAttachment(att))
	}
	return out
}

func renderAttachment(att *domain.Attachment) attachmentJSON {
	out := attachmentJSON{
		Id:               att.Id,
		OriginalFilename: att.OriginalFilename,
		MimeType:         att.MimeType,
		FileSize:         att.FileSize,
		Url:              att.FileURL(),
	}
	if att.ThumbnailPath != nil {
		u := att.ThumbnailURL()
		out.ThumbnailUrl = &u
	}
	return out
}

func renderMessages(msgs []*domain.ChatMessage) []messageJSON {
	out := make([]messageJSON, 0, len(msgs))
	for _, msg := range msgs {
		out = append(out, renderMessage(msg))
	}
	return out
}
