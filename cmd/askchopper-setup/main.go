// Command askchopper-setup manages the remote assistant out of band:
// creating and binding the retrieval index and rotating the model.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/askchopper-dev/askchopper/internal/config"
	"github.com/askchopper-dev/askchopper/internal/logger"
	"github.com/askchopper-dev/askchopper/internal/openai"
	"github.com/askchopper-dev/askchopper/internal/service"
)

func main() {
	var (
		configFolder string
		ensureIndex  bool
		bindStoreID  string
		rotateModel  string
	)
	flag.StringVar(&configFolder, "config_folder", "config", "path to folder with configs")
	flag.BoolVar(&ensureIndex, "ensure-index", false, "create the vector store if missing and bind it to the assistant")
	flag.StringVar(&bindStoreID, "bind-store", "", "bind an existing vector store id to the assistant")
	flag.StringVar(&rotateModel, "rotate-model", "", "switch the assistant to the given model")
	flag.Parse()

	cfg := config.MustLoad(configFolder)
	logger.Initialize(cfg.Public.LogLevel, cfg.Public.LogJSON)

	if !ensureIndex && bindStoreID == "" && rotateModel == "" {
		flag.Usage()
		os.Exit(2)
	}

	provider := openai.New(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL)
	assistantCfg := service.NewAssistantConfig(cfg.OpenAI.AssistantID, cfg.OpenAI.Model, cfg.OpenAI.VectorStoreID)
	index := service.NewVectorIndex(provider, assistantCfg, cfg.Public.IndexIdleExpiryDays)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if ensureIndex {
		id, err := index.EnsureIndex(ctx)
		if err != nil {
			slog.Error("ensure index failed", "error", err)
			os.Exit(1)
		}
		slog.Info("vector store ready", "vector_store_id", id)
		slog.Info("export this id for the API process", "env", "OPENAI_VECTOR_STORE_ID="+id)
	}

	if bindStoreID != "" {
		if err := index.BindToAssistant(ctx, bindStoreID); err != nil {
			slog.Error("bind failed", "vector_store_id", bindStoreID, "error", err)
			os.Exit(1)
		}
		slog.Info("vector store bound to assistant", "vector_store_id", bindStoreID)
	}

	if rotateModel != "" {
		if err := index.RotateModel(ctx, rotateModel); err != nil {
			slog.Error("model rotation failed", "model", rotateModel, "error", err)
			os.Exit(1)
		}
		slog.Info("assistant model rotated", "model", rotateModel)
	}
}
