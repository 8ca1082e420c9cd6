package config

import (
	"fmt"
	"os"
	"path"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Public  Public
	Private Private
	OpenAI  OpenAI
}

type Public struct {
	// HTTP
	Port int `yaml:"port"`

	// Logging
	LogLevel string `yaml:"log_level"`
	LogJSON  bool   `yaml:"log_json"`

	// Attachments
	UploadDir                string   `yaml:"upload_dir"`
	MaxAttachmentSizeBytes   int64    `yaml:"max_attachment_size_bytes"`
	MaxTotalAttachmentSize   int64    `yaml:"max_total_attachment_size"`
	MaxAttachmentsPerMessage int      `yaml:"max_attachments_per_message"`
	AllowedImageMimeTypes    []string `yaml:"allowed_image_mime_types"`
	AllowedDocumentMimeTypes []string `yaml:"allowed_document_mime_types"`
	ThumbnailMaxPx           int      `yaml:"thumbnail_max_px"`

	// Messages
	MaxMessageLength int `yaml:"max_message_length"`

	// Run orchestration
	RunTimeoutSeconds     int    `yaml:"run_timeout_seconds"`
	PollInitialIntervalMs int    `yaml:"poll_initial_interval_ms"`
	PollMaxIntervalMs     int    `yaml:"poll_max_interval_ms"`
	ThreadReplayDepth     int    `yaml:"thread_replay_depth"` // turns re-posted when a remote thread must be recreated
	IndexIdleExpiryDays   int    `yaml:"index_idle_expiry_days"`
	DefaultSessionID      string `yaml:"default_session_id"`
}

type Private struct {
	Pg Pg `yaml:"pg"`
}

type Pg struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Dbname   string `yaml:"dbname"`
}

// OpenAI holds provider credentials and identifiers. These come from the
// environment, read once at process start; rotating them means re-running
// the setup command, not live reload.
type OpenAI struct {
	APIKey        string `env:"OPENAI_API_KEY,required"`
	AssistantID   string `env:"OPENAI_ASSISTANT_ID"`
	VectorStoreID string `env:"OPENAI_VECTOR_STORE_ID"`
	Model         string `env:"OPENAI_MODEL" envDefault:"gpt-4-turbo"`
	BaseURL       string `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
}

func (p *Public) RunTimeout() time.Duration {
	return time.Duration(p.RunTimeoutSeconds) * time.Second
}

func (p *Public) PollInitialInterval() time.Duration {
	return time.Duration(p.PollInitialIntervalMs) * time.Millisecond
}

func (p *Public) PollMaxInterval() time.Duration {
	return time.Duration(p.PollMaxIntervalMs) * time.Millisecond
}

func mustLoadPath(configPath string, output interface{}) {
	// check if file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		panic("can't read config file")
	}

	err = yaml.Unmarshal(configFile, output)
	if err != nil {
		panic("can't unmarshal config file")
	}
}

func MustLoad(configFolder string) *Config {
	var public Public
	mustLoadPath(path.Join(configFolder, "public.yaml"), &public)
	public.applyDefaults()

	var private Private
	mustLoadPath(path.Join(configFolder, "private.yaml"), &private)

	var openai OpenAI
	if err := env.Parse(&openai); err != nil {
		panic(fmt.Sprintf("parse openai env config: %v", err))
	}

	return &Config{public, private, openai}
}

func (p *Public) applyDefaults() {
	if p.Port == 0 {
		p.Port = 8080
	}
	if p.LogLevel == "" {
		p.LogLevel = "info"
	}
	if p.UploadDir == "" {
		p.UploadDir = "uploads"
	}
	if p.MaxAttachmentSizeBytes == 0 {
		p.MaxAttachmentSizeBytes = 16 << 20
	}
	if p.MaxTotalAttachmentSize == 0 {
		p.MaxTotalAttachmentSize = 20 << 20
	}
	if p.MaxAttachmentsPerMessage == 0 {
		p.MaxAttachmentsPerMessage = 4
	}
	if p.ThumbnailMaxPx == 0 {
		p.ThumbnailMaxPx = 300
	}
	if p.MaxMessageLength == 0 {
		p.MaxMessageLength = 8000
	}
	if p.RunTimeoutSeconds == 0 {
		p.RunTimeoutSeconds = 120
	}
	if p.PollInitialIntervalMs == 0 {
		p.PollInitialIntervalMs = 400
	}
	if p.PollMaxIntervalMs == 0 {
		p.PollMaxIntervalMs = 5000
	}
	if p.ThreadReplayDepth == 0 {
		p.ThreadReplayDepth = 10
	}
	if p.IndexIdleExpiryDays == 0 {
		p.IndexIdleExpiryDays = 30
	}
	if p.DefaultSessionID == "" {
		p.DefaultSessionID = "default"
	}
	if len(p.AllowedImageMimeTypes) == 0 {
		p.AllowedImageMimeTypes = []string{"image/jpeg", "image/png", "image/gif"}
	}
	if len(p.AllowedDocumentMimeTypes) == 0 {
		p.AllowedDocumentMimeTypes = []string{"application/pdf", "text/plain", "text/markdown"}
	}
}
