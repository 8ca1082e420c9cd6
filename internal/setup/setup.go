package setup

import (
	"github.com/askchopper-dev/askchopper/internal/config"
	"github.com/askchopper-dev/askchopper/internal/handler"
	"github.com/askchopper-dev/askchopper/internal/openai"
	"github.com/askchopper-dev/askchopper/internal/service"
	"github.com/askchopper-dev/askchopper/internal/storage/fs"
	"github.com/askchopper-dev/askchopper/internal/storage/pg"
	"github.com/askchopper-dev/askchopper/internal/validation"
)

// Dependencies struct to hold all initialized dependencies.
type Dependencies struct {
	Storage         *pg.Storage
	Media           *fs.Storage
	Handler         *handler.Handler
	AssistantConfig *service.AssistantConfig
	VectorIndex     *service.VectorIndex
	Provider        *openai.Client
}

// SetupDependencies initializes all dependencies required for the application.
func SetupDependencies(cfg *config.Config) (*Dependencies, error) {
	storage, err := pg.New(cfg)
	if err != nil {
		return nil, err
	}

	media, err := fs.New(cfg.Public.UploadDir)
	if err != nil {
		return nil, err
	}

	provider := openai.New(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL)
	assistantCfg := service.NewAssistantConfig(cfg.OpenAI.AssistantID, cfg.OpenAI.Model, cfg.OpenAI.VectorStoreID)

	content := validation.NewContent(cfg.Public.MaxMessageLength)
	attachments := service.NewAttachments(storage, media, cfg.Public.ThumbnailMaxPx)
	ledger := service.NewLedger(storage, attachments, content, cfg.Public.DefaultSessionID)
	index := service.NewVectorIndex(provider, assistantCfg, cfg.Public.IndexIdleExpiryDays)
	orchestrator := service.NewOrchestrator(provider, storage, media, index, assistantCfg, service.NewRenderer(), service.OrchestratorOptions{
		RunTimeout:          cfg.Public.RunTimeout(),
		PollInitialInterval: cfg.Public.PollInitialInterval(),
		PollMaxInterval:     cfg.Public.PollMaxInterval(),
		ReplayDepth:         cfg.Public.ThreadReplayDepth,
	})

	h := handler.New(ledger, attachments, orchestrator, storage, cfg)

	return &Dependencies{
		Storage:         storage,
		Media:           media,
		Handler:         h,
		AssistantConfig: assistantCfg,
		VectorIndex:     index,
		Provider:        provider,
	}, nil
}
