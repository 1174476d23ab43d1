package llm

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/link-companion-assistant/agent/contract"
	geminix "github.com/tanpawarit/link-companion-assistant/pkg/gemini"
	openrouterx "github.com/tanpawarit/link-companion-assistant/pkg/openrouter"
)

type Provider string

const (
	ProviderOpenRouter Provider = "openrouter"
	ProviderGemini     Provider = "gemini"
)

// Role selects per-role overrides.
type Role string

const (
	RoleRouter      Role = "router"
	RoleSynthesizer Role = "synthesizer"
)

type Config struct {
	Provider           Provider      `envconfig:"PROVIDER" split_words:"true" default:"openrouter"`
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://openrouter.ai/api/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true" required:"true"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"2000"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.5"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
	SiteURL            string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName           string        `envconfig:"SITE_NAME" split_words:"true"`

	GeminiAPIKey  string `envconfig:"GEMINI_API_KEY" split_words:"true"`
	GeminiBaseURL string `envconfig:"GEMINI_BASE_URL" split_words:"true"`

	RouterModel       string  `envconfig:"ROUTER_MODEL" split_words:"true"`
	SynthModel        string  `envconfig:"SYNTH_MODEL" split_words:"true"`
	RouterTemperature float32 `envconfig:"ROUTER_TEMPERATURE" split_words:"true" default:"0"`
	SynthTemperature  float32 `envconfig:"SYNTH_TEMPERATURE" split_words:"true" default:"0.2"`
	SynthMaxTokens    int     `envconfig:"SYNTH_MAX_TOKENS" split_words:"true" default:"700"`

	EmbedModel   string `envconfig:"EMBED_MODEL" split_words:"true" default:"text-embedding-3-small"`
	EmbedBaseURL string `envconfig:"EMBED_BASE_URL" split_words:"true" default:"https://api.openai.com/v1"`
	EmbedAPIKey  string `envconfig:"EMBED_API_KEY" split_words:"true"`
}

func (c Config) Validate() error {
	switch c.Provider {
	case ProviderOpenRouter, "":
		if strings.TrimSpace(c.APIKey) == "" {
			return fmt.Errorf("%w: openrouter api key is required", contractx.ErrValidation)
		}
	case ProviderGemini:
		if strings.TrimSpace(c.GeminiAPIKey) == "" {
			return fmt.Errorf("%w: gemini api key is required", contractx.ErrValidation)
		}
	default:
		return fmt.Errorf("%w: unknown llm provider %q", contractx.ErrValidation, c.Provider)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: default model is required", contractx.ErrValidation)
	}
	return nil
}

func (c Config) modelFor(role Role) (string, float32, int) {
	modelName := strings.TrimSpace(c.Model)
	temp := c.Temperature
	maxTokens := c.MaxCompletionToken

	switch role {
	case RoleRouter:
		if v := strings.TrimSpace(c.RouterModel); v != "" {
			modelName = v
		}
		if c.RouterTemperature >= 0 {
			temp = c.RouterTemperature
		}
	case RoleSynthesizer:
		if v := strings.TrimSpace(c.SynthModel); v != "" {
			modelName = v
		}
		if c.SynthTemperature >= 0 {
			temp = c.SynthTemperature
		}
		if c.SynthMaxTokens > 0 {
			maxTokens = c.SynthMaxTokens
		}
	}
	return modelName, temp, maxTokens
}

func (c Config) OpenRouterFor(role Role) openrouterx.Config {
	modelName, temp, maxTokens := c.modelFor(role)
	return openrouterx.Config{
		BaseURL:            strings.TrimSpace(c.BaseURL),
		APIKey:             strings.TrimSpace(c.APIKey),
		Model:              modelName,
		MaxCompletionToken: &maxTokens,
		Temperature:        temp,
		Timeout:            c.Timeout,
		SiteURL:            strings.TrimSpace(c.SiteURL),
		SiteName:           strings.TrimSpace(c.SiteName),
	}
}

func (c Config) GeminiFor(role Role) geminix.Config {
	modelName, temp, maxTokens := c.modelFor(role)
	return geminix.Config{
		APIKey:      strings.TrimSpace(c.GeminiAPIKey),
		BaseURL:     strings.TrimSpace(c.GeminiBaseURL),
		Model:       modelName,
		MaxTokens:   maxTokens,
		Temperature: temp,
	}
}

// BuilderFor picks the chat model builder of the configured provider.
func (c Config) BuilderFor(role Role) openrouterx.LLMBuilder {
	if c.Provider == ProviderGemini {
		cfg := c.GeminiFor(role)
		return &cfg
	}
	cfg := c.OpenRouterFor(role)
	return &cfg
}

// EmbeddingClientConfig falls back to the chat credentials when no dedicated
// embedding key is set.
func (c Config) EmbeddingClientConfig() openrouterx.Config {
	key := strings.TrimSpace(c.EmbedAPIKey)
	baseURL := strings.TrimSpace(c.EmbedBaseURL)
	if key == "" {
		key = strings.TrimSpace(c.APIKey)
		baseURL = strings.TrimSpace(c.BaseURL)
	}
	return openrouterx.Config{
		BaseURL: baseURL,
		APIKey:  key,
		Model:   strings.TrimSpace(c.EmbedModel),
		Timeout: c.Timeout,
	}
}
