package service

import (
	"sync"

	"github.com/askchopper-dev/askchopper/internal/domain"
)

// AssistantProfile is the process-wide remote assistant configuration.
// Reads take a by-value snapshot so an in-flight run pins the values it
// started with; rotation only affects runs started afterwards.
type AssistantProfile struct {
	AssistantID   string
	Model         string
	VectorStoreID string
}

type AssistantConfig struct {
	mu      sync.RWMutex
	current AssistantProfile
}

func NewAssistantConfig(assistantID, model, vectorStoreID string) *AssistantConfig {
	return &AssistantConfig{current: AssistantProfile{
		AssistantID:   assistantID,
		Model:         model,
		VectorStoreID: vectorStoreID,
	}}
}

func (c *AssistantConfig) Snapshot() AssistantProfile {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

func (c *AssistantConfig) SetVectorStoreID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current.VectorStoreID = id
}

func (c *AssistantConfig) SetModel(model string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current.Model = model
}

// Validate reports whether the profile is usable for starting runs.
func (p AssistantProfile) Validate() error {
	if p.AssistantID == "" {
		return domain.ErrConfiguration
	}
	return nil
}
