package service

import (
	"bytes"
	"context"
	"io"

	"github.com/askchopper-dev/askchopper/internal/domain"
	"github.com/askchopper-dev/askchopper/internal/openai"
)

type mockLedgerStorage struct {
	CreateMessageFunc        func(ctx context.Context, msg *domain.ChatMessage) (int64, error)
	GetMessageFunc           func(ctx context.Context, id int64) (*domain.ChatMessage, error)
	GetHistoryFunc           func(ctx context.Context, sessionID string) ([]*domain.ChatMessage, error)
	LatestThreadIDFunc       func(ctx context.Context, sessionID string) (string, error)
	SetRemoteCorrelationFunc func(ctx context.Context, id int64, threadID, messageID string) error
	DeleteMessageFunc        func(ctx context.Context, id int64) ([]*domain.Attachment, error)
}

func (m *mockLedgerStorage) CreateMessage(ctx context.Context, msg *domain.ChatMessage) (int64, error) {
	return m.CreateMessageFunc(ctx, msg)
}
func (m *mockLedgerStorage) GetMessage(ctx context.Context, id int64) (*domain.ChatMessage, error) {
	return m.GetMessageFunc(ctx, id)
}
func (m *mockLedgerStorage) GetHistory(ctx context.Context, sessionID string) ([]*domain.ChatMessage, error) {
	return m.GetHistoryFunc(ctx, sessionID)
}
func (m *mockLedgerStorage) LatestThreadID(ctx context.Context, sessionID string) (string, error) {
	return m.LatestThreadIDFunc(ctx, sessionID)
}
func (m *mockLedgerStorage) SetRemoteCorrelation(ctx context.Context, id int64, threadID, messageID string) error {
	return m.SetRemoteCorrelationFunc(ctx, id, threadID, messageID)
}
func (m *mockLedgerStorage) DeleteMessage(ctx context.Context, id int64) ([]*domain.Attachment, error) {
	return m.DeleteMessageFunc(ctx, id)
}

type mockMediaStorage struct {
	SaveFunc            func(fileData io.Reader, storedFilename string) (string, error)
	SaveThumbnailFunc   func(data []byte, thumbFilename string) (string, error)
	ReadFunc            func(storedFilename string) (io.ReadCloser, error)
	DeleteFileFunc      func(storedFilename string) error
	DeleteThumbnailFunc func(thumbFilename string) error
}

func (m *mockMediaStorage) Save(fileData io.Reader, storedFilename string) (string, error) {
	return m.SaveFunc(fileData, storedFilename)
}
func (m *mockMediaStorage) SaveThumbnail(data []byte, thumbFilename string) (string, error) {
	return m.SaveThumbnailFunc(data, thumbFilename)
}
func (m *mockMediaStorage) Read(storedFilename string) (io.ReadCloser, error) {
	return m.ReadFunc(storedFilename)
}
func (m *mockMediaStorage) DeleteFile(storedFilename string) error {
	return m.DeleteFileFunc(storedFilename)
}
func (m *mockMediaStorage) DeleteThumbnail(thumbFilename string) error {
	return m.DeleteThumbnailFunc(thumbFilename)
}

type mockAttachmentStorage struct {
	CreateAttachmentFunc        func(ctx context.Context, att *domain.Attachment) (int64, error)
	MarkAttachmentProcessedFunc func(ctx context.Context, id int64, thumbnailPath *string) error
	GetAttachmentFunc           func(ctx context.Context, id int64) (*domain.Attachment, error)
}

func (m *mockAttachmentStorage) CreateAttachment(ctx context.Context, att *domain.Attachment) (int64, error) {
	return m.CreateAttachmentFunc(ctx, att)
}
func (m *mockAttachmentStorage) MarkAttachmentProcessed(ctx context.Context, id int64, thumbnailPath *string) error {
	return m.MarkAttachmentProcessedFunc(ctx, id, thumbnailPath)
}
func (m *mockAttachmentStorage) GetAttachment(ctx context.Context, id int64) (*domain.Attachment, error) {
	return m.GetAttachmentFunc(ctx, id)
}

type mockRunProvider struct {
	CreateThreadFunc   func(ctx context.Context) (*openai.Thread, error)
	RetrieveThreadFunc func(ctx context.Context, threadID string) (*openai.Thread, error)
	CreateMessageFunc  func(ctx context.Context, threadID string, req *openai.CreateMessageRequest) (*openai.ThreadMessage, error)
	ListMessagesFunc   func(ctx context.Context, threadID string, limit int) (*openai.MessageList, error)
	CreateRunFunc      func(ctx context.Context, threadID string, req *openai.CreateRunRequest) (*openai.Run, error)
	RetrieveRunFunc    func(ctx context.Context, threadID, runID string) (*openai.Run, error)
	CancelRunFunc      func(ctx context.Context, threadID, runID string) (*openai.Run, error)
	UploadFileFunc     func(ctx context.Context, filename string, data io.Reader) (*openai.File, error)
}

func (m *mockRunProvider) CreateThread(ctx context.Context) (*openai.Thread, error) {
	return m.CreateThreadFunc(ctx)
}
func (m *mockRunProvider) RetrieveThread(ctx context.Context, threadID string) (*openai.Thread, error) {
	return m.RetrieveThreadFunc(ctx, threadID)
}
func (m *mockRunProvider) CreateMessage(ctx context.Context, threadID string, req *openai.CreateMessageRequest) (*openai.ThreadMessage, error) {
	return m.CreateMessageFunc(ctx, threadID, req)
}
func (m *mockRunProvider) ListMessages(ctx context.Context, threadID string, limit int) (*openai.MessageList, error) {
	return m.ListMessagesFunc(ctx, threadID, limit)
}
func (m *mockRunProvider) CreateRun(ctx context.Context, threadID string, req *openai.CreateRunRequest) (*openai.Run, error) {
	return m.CreateRunFunc(ctx, threadID, req)
}
func (m *mockRunProvider) RetrieveRun(ctx context.Context, threadID, runID string) (*openai.Run, error) {
	return m.RetrieveRunFunc(ctx, threadID, runID)
}
func (m *mockRunProvider) CancelRun(ctx context.Context, threadID, runID string) (*openai.Run, error) {
	return m.CancelRunFunc(ctx, threadID, runID)
}
func (m *mockRunProvider) UploadFile(ctx context.Context, filename string, data io.Reader) (*openai.File, error) {
	return m.UploadFileFunc(ctx, filename, data)
}

type mockIndexProvider struct {
	CreateVectorStoreFunc   func(ctx context.Context, req *openai.CreateVectorStoreRequest) (*openai.VectorStore, error)
	RetrieveVectorStoreFunc func(ctx context.Context, vectorStoreID string) (*openai.VectorStore, error)
	RetrieveAssistantFunc   func(ctx context.Context, assistantID string) (*openai.Assistant, error)
	UpdateAssistantFunc     func(ctx context.Context, assistantID string, req *openai.UpdateAssistantRequest) (*openai.Assistant, error)
}

func (m *mockIndexProvider) CreateVectorStore(ctx context.Context, req *openai.CreateVectorStoreRequest) (*openai.VectorStore, error) {
	return m.CreateVectorStoreFunc(ctx, req)
}
func (m *mockIndexProvider) RetrieveVectorStore(ctx context.Context, vectorStoreID string) (*openai.VectorStore, error) {
	return m.RetrieveVectorStoreFunc(ctx, vectorStoreID)
}
func (m *mockIndexProvider) RetrieveAssistant(ctx context.Context, assistantID string) (*openai.Assistant, error) {
	return m.RetrieveAssistantFunc(ctx, assistantID)
}
func (m *mockIndexProvider) UpdateAssistant(ctx context.Context, assistantID string, req *openai.UpdateAssistantRequest) (*openai.Assistant, error) {
	return m.UpdateAssistantFunc(ctx, assistantID, req)
}

type mockVectorIndex struct {
	EnsureIndexFunc     func(ctx context.Context) (string, error)
	BindToAssistantFunc func(ctx context.Context, indexID string) error
	RotateModelFunc     func(ctx context.Context, model string) error
}

func (m *mockVectorIndex) EnsureIndex(ctx context.Context) (string, error) {
	return m.EnsureIndexFunc(ctx)
}
func (m *mockVectorIndex) BindToAssistant(ctx context.Context, indexID string) error {
	return m.BindToAssistantFunc(ctx, indexID)
}
func (m *mockVectorIndex) RotateModel(ctx context.Context, model string) error {
	return m.RotateModelFunc(ctx, model)
}

type mockAttachmentRemover struct {
	RemoveFilesFunc func(att *domain.Attachment)
}

func (m *mockAttachmentRemover) RemoveFiles(att *domain.Attachment) {
	m.RemoveFilesFunc(att)
}

type mockValidator struct {
	TextFunc func(text string) error
}

func (m *mockValidator) Text(text string) error {
	return m.TextFunc(text)
}

func nopReadCloser(data []byte) io.ReadCloser {
	return io.NopCloser(bytes.NewReader(data))
}
