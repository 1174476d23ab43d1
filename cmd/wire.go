package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	modelsx "github.com/tanpawarit/link-companion-assistant/agent/agents/models"
	orchestratorx "github.com/tanpawarit/link-companion-assistant/agent/agents/orchestrator"
	contractx "github.com/tanpawarit/link-companion-assistant/agent/contract"
	llmx "github.com/tanpawarit/link-companion-assistant/agent/llm"
	ragx "github.com/tanpawarit/link-companion-assistant/agent/rag"
	routerx "github.com/tanpawarit/link-companion-assistant/agent/router"
	safetyx "github.com/tanpawarit/link-companion-assistant/agent/safety"
	statex "github.com/tanpawarit/link-companion-assistant/agent/state"
	toolx "github.com/tanpawarit/link-companion-assistant/agent/tool"
	configx "github.com/tanpawarit/link-companion-assistant/pkg/config"
	openrouterx "github.com/tanpawarit/link-companion-assistant/pkg/openrouter"
	redisx "github.com/tanpawarit/link-companion-assistant/pkg/redis"
)

// DataConfig locates the static datasets and the retrieval index.
type DataConfig struct {
	FaultCodes string        `split_words:"true" default:"data/fault_codes.json"`
	Fitment    string        `split_words:"true" default:"data/ecu_fitment.json"`
	Index      string        `split_words:"true" default:"data/index.jsonl"`
	Docs       string        `split_words:"true" default:"docs"`
	CacheTTL   time.Duration `split_words:"true" default:"5m"`
	TopK       int           `split_words:"true" default:"3"`
}

type HistoryConfig struct {
	Prefix string        `split_words:"true" default:"lca:history:"`
	TTL    time.Duration `split_words:"true" default:"24h"`
}

type app struct {
	orchestrator *orchestratorx.Orchestrator
	closers      []func() error
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Warn().Err(err).Msg("close failed")
		}
	}
}

func buildApp(ctx context.Context) (*app, error) {
	data, err := configx.New[DataConfig]("DATA")
	if err != nil {
		return nil, fmt.Errorf("load data config: %w", err)
	}
	llmCfg, err := configx.New[llmx.Config]("LLM")
	if err != nil {
		return nil, fmt.Errorf("load llm config: %w", err)
	}

	dispatcher := toolx.NewDispatcher(toolx.NewDatasets(data.FaultCodes, data.Fitment, toolx.WithCacheTTL(data.CacheTTL)))

	registry, err := modelsx.NewRegistry(ctx, *llmCfg, toolx.Infos())
	if err != nil {
		return nil, err
	}
	router, err := routerx.New(registry.Planner, dispatcher.Names())
	if err != nil {
		return nil, err
	}

	a := &app{}
	history, err := buildHistory(ctx, a)
	if err != nil {
		a.Close()
		return nil, err
	}

	orch, err := orchestratorx.New(
		safetyx.Default(),
		router,
		dispatcher,
		buildRetriever(*llmCfg, *data),
		registry.Synthesizer,
		history,
		orchestratorx.Config{TopK: data.TopK},
	)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.orchestrator = orch
	return a, nil
}

// buildRetriever returns nil when no embedding credentials are configured;
// the orchestrator then fails every rag action closed.
func buildRetriever(cfg llmx.Config, data DataConfig) contractx.Retriever {
	embedCfg := cfg.EmbeddingClientConfig()
	client := openrouterx.NewClient(embedCfg)
	if client == nil {
		log.Warn().Msg("no embedding api key, retrieval disabled")
		return nil
	}
	embedder, err := openrouterx.NewEmbedder(client, embedCfg.Model)
	if err != nil {
		log.Warn().Err(err).Msg("embedder unavailable, retrieval disabled")
		return nil
	}
	retriever, err := ragx.NewRetriever(embedder, ragx.NewIndexLoader(data.Index, data.CacheTTL))
	if err != nil {
		log.Warn().Err(err).Msg("retriever unavailable, retrieval disabled")
		return nil
	}
	return retriever
}

// buildHistory uses redis when REDIS_URL is set and process memory otherwise.
func buildHistory(ctx context.Context, a *app) (contractx.HistoryStore, error) {
	if strings.TrimSpace(os.Getenv("REDIS_URL")) == "" {
		log.Info().Msg("conversation history kept in memory")
		return statex.NewMemoryStore(), nil
	}

	redisCfg, err := configx.New[redisx.Config]("REDIS")
	if err != nil {
		return nil, fmt.Errorf("load redis config: %w", err)
	}
	histCfg, err := configx.New[HistoryConfig]("HISTORY")
	if err != nil {
		return nil, fmt.Errorf("load history config: %w", err)
	}
	client, err := redisCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	a.closers = append(a.closers, client.Close)

	log.Info().Str("prefix", histCfg.Prefix).Msg("conversation history kept in redis")
	return statex.NewRedisStore(client, statex.WithKeyPrefix(histCfg.Prefix), statex.WithTTL(histCfg.TTL))
}
