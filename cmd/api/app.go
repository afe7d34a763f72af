package main

import (
	"context"
	"fmt"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	zLog "github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/openai"
	router "go-toolrouter/internal/agents/router/handler"
	specialist "go-toolrouter/internal/agents/specialist/handler"
	"go-toolrouter/internal/catalog"
	"go-toolrouter/internal/errhandler"
	"go-toolrouter/internal/executor"
	"go-toolrouter/internal/workflow"
	"go-toolrouter/pkg/config"
	"go-toolrouter/pkg/metrics"
)

func newEmbedder(cfg config.Config) (embeddings.Embedder, error) {
	if cfg.Catalog.Embedder == "hashing" {
		return catalog.HashingEmbedder{}, nil
	}
	llm, err := openai.New(openai.WithToken(cfg.LLM.OpenAIAPIKey), openai.WithEmbeddingModel(cfg.Catalog.EmbeddingModel))
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}
	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}
	return embedder, nil
}

func openCatalog(ctx context.Context, cfg config.Config) (*catalog.Store, error) {
	embedder, err := newEmbedder(cfg)
	if err != nil {
		return nil, err
	}
	return catalog.Open(ctx, catalog.Config{Path: cfg.Catalog.DBPath}, embedder)
}

// indexCollections parses the collections directory into store unless it is already
// populated.
func indexCollections(ctx context.Context, cfg config.Config, store *catalog.Store) (int, error) {
	info, err := store.Info(ctx)
	if err != nil {
		return 0, err
	}
	if info.Count > 0 {
		zLog.Info().Int("tools", info.Count).Msg("catalog already populated")
		return 0, nil
	}
	tools, err := catalog.ParseDir(cfg.Catalog.CollectionsDir)
	if err != nil {
		return 0, fmt.Errorf("parse collections: %w", err)
	}
	return store.IndexTools(ctx, tools)
}

func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}

func newWorkflow(cfg config.Config, store *catalog.Store, m *metrics.Metrics) (*workflow.Workflow, error) {
	routerLLM, err := openai.New(openai.WithModel(cfg.LLM.RouterModel), openai.WithToken(cfg.LLM.OpenAIAPIKey))
	if err != nil {
		return nil, fmt.Errorf("router model: %w", err)
	}
	agentLLM, err := anthropic.New(anthropic.WithModel(cfg.LLM.AgentModel), anthropic.WithToken(cfg.LLM.AnthropicAPIKey))
	if err != nil {
		return nil, fmt.Errorf("agent model: %w", err)
	}

	agent, err := specialist.New(agentLLM, specialist.Config{
		Temperature: cfg.LLM.AgentTemperature,
		MaxTokens:   cfg.LLM.AgentMaxTokens,
	})
	if err != nil {
		return nil, err
	}

	return workflow.New(workflow.Deps{
		Classifier:  router.NewFromModel(routerLLM),
		Retriever:   catalog.NewRetriever(store),
		Decider:     agent,
		Synthesizer: agent,
		Executor: executor.New(executor.Config{
			Timeout:   cfg.Executor.Timeout,
			UserAgent: cfg.Executor.UserAgent,
		}, executor.WithMetrics(m)),
		Messenger: errhandler.NewMessenger(routerLLM, cfg.ErrorTemplates),
		Catalog:   store,
	},
		workflow.WithTopK(cfg.Catalog.TopK),
		workflow.WithTimeout(cfg.Workflow.Timeout),
		workflow.WithMetrics(m),
	)
}
