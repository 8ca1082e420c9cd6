package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/askchopper-dev/askchopper/internal/domain"
	"github.com/askchopper-dev/askchopper/internal/openai"
)

const vectorStoreName = "Ask Chopper Documents"

type VectorIndexService interface {
	EnsureIndex(ctx context.Context) (string, error)
	BindToAssistant(ctx context.Context, indexID string) error
	RotateModel(ctx context.Context, model string) error
}

// VectorIndex owns the lifecycle of the remote retrieval index and its
// binding to the assistant's file_search tool.
type VectorIndex struct {
	provider       IndexProvider
	config         *AssistantConfig
	idleExpiryDays int
}

type IndexProvider interface {
	CreateVectorStore(ctx context.Context, req *openai.CreateVectorStoreRequest) (*openai.VectorStore, error)
	RetrieveVectorStore(ctx context.Context, vectorStoreID string) (*openai.VectorStore, error)
	RetrieveAssistant(ctx context.Context, assistantID string) (*openai.Assistant, error)
	UpdateAssistant(ctx context.Context, assistantID string, req *openai.UpdateAssistantRequest) (*openai.Assistant, error)
}

func NewVectorIndex(provider IndexProvider, config *AssistantConfig, idleExpiryDays int) *VectorIndex {
	return &VectorIndex{provider, config, idleExpiryDays}
}

// EnsureIndex returns the configured index id when the remote store still
// exists and has not expired; otherwise it creates a fresh store with an
// inactivity expiration policy, binds it to the assistant and persists the
// new id. Either the whole create+bind sequence becomes visible or none
// of it.
func (v *VectorIndex) EnsureIndex(ctx context.Context) (string, error) {
	snap := v.config.Snapshot()

	if snap.VectorStoreID != "" {
		store, err := v.provider.RetrieveVectorStore(ctx, snap.VectorStoreID)
		if err == nil && store.Status != openai.VectorStoreStatusExpired {
			return store.Id, nil
		}
		if err != nil && !errors.Is(err, domain.ErrProviderRequest) {
			// Auth/network/quota problems are not evidence of expiry.
			return "", fmt.Errorf("verify vector store %s: %w", snap.VectorStoreID, err)
		}
		slog.Warn("configured vector store is gone or expired, creating a new one", "vector_store_id", snap.VectorStoreID)
	}

	store, err := v.provider.CreateVectorStore(ctx, &openai.CreateVectorStoreRequest{
		Name: vectorStoreName,
		ExpiresAfter: &openai.ExpiresAfter{
			Anchor: "last_active_at",
			Days:   v.idleExpiryDays,
		},
		Metadata: map[string]string{"application": "ask_chopper"},
	})
	if err != nil {
		return "", fmt.Errorf("create vector store: %w", err)
	}

	if err := v.BindToAssistant(ctx, store.Id); err != nil {
		// Persisted configuration stays untouched on a failed bind.
		return "", err
	}

	v.config.SetVectorStoreID(store.Id)
	slog.Info("vector store created and bound", "vector_store_id", store.Id, "idle_expiry_days", v.idleExpiryDays)
	return store.Id, nil
}

// BindToAssistant points the assistant's file_search tool at exactly one
// index id. Rebinding replaces, never appends, so stale and live indices
// can never both be searchable.
func (v *VectorIndex) BindToAssistant(ctx context.Context, indexID string) error {
	snap := v.config.Snapshot()
	if err := snap.Validate(); err != nil {
		return err
	}

	_, err := v.provider.UpdateAssistant(ctx, snap.AssistantID, &openai.UpdateAssistantRequest{
		Tools: []openai.Tool{{Type: "file_search"}},
		ToolResources: &openai.ToolResources{
			FileSearch: &openai.FileSearchResources{VectorStoreIds: []string{indexID}},
		},
	})
	if err != nil {
		return fmt.Errorf("bind vector store to assistant: %w", err)
	}
	return nil
}

// RotateModel switches the assistant's model while preserving its tool
// bindings. Runs already in flight keep the snapshot they started with.
func (v *VectorIndex) RotateModel(ctx context.Context, model string) error {
	snap := v.config.Snapshot()
	if err := snap.Validate(); err != nil {
		return err
	}

	assistant, err := v.provider.RetrieveAssistant(ctx, snap.AssistantID)
	if err != nil {
		return fmt.Errorf("retrieve assistant: %w", err)
	}

	_, err = v.provider.UpdateAssistant(ctx, snap.AssistantID, &openai.UpdateAssistantRequest{
		Model:         model,
		Tools:         assistant.Tools,
		ToolResources: assistant.ToolResources,
	})
	if err != nil {
		return fmt.Errorf("rotate assistant model: %w", err)
	}

	v.config.SetModel(model)
	slog.Info("assistant model rotated", "model", model)
	return nil
}
