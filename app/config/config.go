package config

import (
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Log        Log        `yaml:"log"`
	Mongo      Mongo      `yaml:"mongo"`
	Yandex     Yandex     `yaml:"yandex"`
	OpenAI     OpenAI     `yaml:"openai"`
	Recognizer Recognizer `yaml:"recognizer"`
	Server     Server     `yaml:"server"`
	Pipeline   Pipeline   `yaml:"pipeline"`
}

type Log struct {
	// Telegram logging config
	Telegram TelegramLog `yaml:"telegram"`
}

type TelegramLog struct {
	// Chat bot token, obtain it via BotFather
	Token string `yaml:"token" example:"1234567890:ABCdefGHIjklMNopQRstUVwxyZ-123456789"`
	// Chat ID to send messages to
	ChatID string `yaml:"chat_id" example:"1001234567890"`
}

type Mongo struct {
	// Connection string, Atlas URIs included
	URI string `yaml:"uri" example:"mongodb://localhost:27017" validate:"required"`
	// Database name
	Database string `yaml:"database" example:"moovzmatch" validate:"required"`
	// Collection holding movie metadata documents
	Movies string `yaml:"movies"`
	// Collection holding TV show metadata documents
	TVShows string `yaml:"tv_shows"`
	// Collection holding movie dialogue chunks
	MovieChunks string `yaml:"movie_chunks"`
	// Collection holding TV dialogue chunks
	TVChunks string `yaml:"tv_chunks"`
	// Max connection pool size
	MaxPoolSize uint64 `yaml:"max_pool_size"`
}

type Yandex struct {
	SpeechKit SpeechKit `yaml:"speech_kit"`
}

type SpeechKit struct {
	// Path to the service account key file
	KeyFile string `yaml:"key_file" example:"service-account-key.json"`
	// Recognition language code
	Language string `yaml:"language" example:"en-US"`
	// Recognition model
	Model string `yaml:"model" example:"general"`
}

type OpenAI struct {
	Embedding ModelConfig `yaml:"embedding" validate:"required"`
}

type ModelConfig struct {
	// OpenAI base url
	BaseURL string `yaml:"base_url" example:"https://api.openai.com/v1" validate:"required"`
	// OpenAI token
	Token string `yaml:"token" example:"sk-proj-abc123456789DEF789ghi012JKL345mno678PQR901stu234VWX" validate:"required"`
	// Model name
	Model string `yaml:"model" example:"text-embedding-3-small" validate:"required"`
}

type Recognizer struct {
	// Celebrity recognition endpoint
	Endpoint string `yaml:"endpoint" example:"https://faces.example.com/v1/celebrities" validate:"required"`
	// Bearer token
	Token string `yaml:"token"`
	// Largest accepted image payload in bytes
	MaxImageBytes int `yaml:"max_image_bytes"`
}

type Server struct {
	// Listen address of the websocket API
	Addr string `yaml:"addr" example:":8080"`
}

// Pipeline holds the tuning knobs of the identification loop. All score
// values are on the normalized [0,1] scale.
type Pipeline struct {
	// Reciprocal-rank-fusion penalty of the vector arm
	VectorPenalty int `yaml:"vector_penalty"`
	// Reciprocal-rank-fusion penalty of the full-text arm
	FulltextPenalty int `yaml:"fulltext_penalty"`
	// Accept a candidate immediately at or above this score
	AcceptThreshold float64 `yaml:"accept_threshold"`
	// Drop candidates below this score entirely
	MinScoreGate float64 `yaml:"min_score_gate"`
	// Rolling top-score window used for the low-confidence rejection
	HistoryWindow int `yaml:"history_window"`
	// Wall-clock budget of one identification run
	MaxWait time.Duration `yaml:"max_wait"`
	// Bonus granted for a fully corroborated actor set
	ActorWeight float64 `yaml:"actor_weight"`
	// Number of top candidates validated against actor evidence
	TopK int `yaml:"top_k"`
	// Each search arm fetches this many times TopK documents
	Oversampling int `yaml:"oversampling"`
	// Transcripts shorter than this do not trigger a search
	MinTranscriptChars int `yaml:"min_transcript_chars"`
	// Progress updates fire on score changes of at least this much
	NotifyEpsilon float64 `yaml:"notify_epsilon"`
	// Buffered audio chunks per session
	AudioQueueSize int `yaml:"audio_queue_size"`
	// How long to wait for the speech pump to drain on close
	CloseGrace time.Duration `yaml:"close_grace"`
}

func Load() (*Config, error) {
	var result Config

	data, err := os.ReadFile("config.yaml")
	if err != nil {
		return nil, oops.Errorf("failed to read config file: %w", err)
	}

	if err = yaml.Unmarshal(data, &result); err != nil {
		return nil, oops.Errorf("failed to parse YAML config: %w", err)
	}

	result.applyDefaults()

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(result); err != nil {
		return nil, oops.Errorf("failed to validate config: %w", err)
	}

	return &result, nil
}

func (c *Config) applyDefaults() {
	if c.Mongo.Movies == "" {
		c.Mongo.Movies = "movies"
	}
	if c.Mongo.TVShows == "" {
		c.Mongo.TVShows = "tv_shows"
	}
	if c.Mongo.MovieChunks == "" {
		c.Mongo.MovieChunks = "movie_chunks"
	}
	if c.Mongo.TVChunks == "" {
		c.Mongo.TVChunks = "tv_chunks"
	}
	if c.Mongo.MaxPoolSize == 0 {
		c.Mongo.MaxPoolSize = 10
	}
	if c.Yandex.SpeechKit.KeyFile == "" {
		c.Yandex.SpeechKit.KeyFile = "service-account-key.json"
	}
	if c.Yandex.SpeechKit.Language == "" {
		c.Yandex.SpeechKit.Language = "en-US"
	}
	if c.Yandex.SpeechKit.Model == "" {
		c.Yandex.SpeechKit.Model = "general"
	}
	if c.Recognizer.MaxImageBytes == 0 {
		c.Recognizer.MaxImageBytes = 5 * 1024 * 1024
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}

	p := &c.Pipeline
	if p.VectorPenalty == 0 {
		p.VectorPenalty = 30
	}
	if p.FulltextPenalty == 0 {
		p.FulltextPenalty = 20
	}
	if p.AcceptThreshold == 0 {
		p.AcceptThreshold = 0.59
	}
	if p.MinScoreGate == 0 {
		p.MinScoreGate = 0.40
	}
	if p.HistoryWindow == 0 {
		p.HistoryWindow = 5
	}
	if p.MaxWait == 0 {
		p.MaxWait = 30 * time.Second
	}
	if p.ActorWeight == 0 {
		p.ActorWeight = 0.08
	}
	if p.TopK == 0 {
		p.TopK = 5
	}
	if p.Oversampling == 0 {
		p.Oversampling = 5
	}
	if p.MinTranscriptChars == 0 {
		p.MinTranscriptChars = 60
	}
	if p.NotifyEpsilon == 0 {
		p.NotifyEpsilon = 0.02
	}
	if p.AudioQueueSize == 0 {
		p.AudioQueueSize = 64
	}
	if p.CloseGrace == 0 {
		p.CloseGrace = 5 * time.Second
	}
}
