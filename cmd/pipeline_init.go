package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/cartscope/advisor-cli/internal/pipeline"
	"github.com/cartscope/advisor-cli/internal/store"
	anthropicpkg "github.com/cartscope/advisor-cli/pkg/anthropic"
	"github.com/cartscope/advisor-cli/pkg/serpapi"
	"github.com/cartscope/advisor-cli/pkg/tavily"
)

// pipelineEnv holds the initialized store and pipeline needed by the
// analyze/serve commands.
type pipelineEnv struct {
	Store    store.Store
	Pipeline *pipeline.Pipeline
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "advisor.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initPipeline sets up the store and provider clients and builds the
// Pipeline. With offline true every provider is replaced by its canned stub.
// Callers should defer env.Close().
func initPipeline(ctx context.Context, offline bool) (*pipelineEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	caps, err := buildCapabilities(offline)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	return &pipelineEnv{
		Store:    st,
		Pipeline: pipeline.New(cfg, st, caps),
	}, nil
}

func buildCapabilities(offline bool) (pipeline.Capabilities, error) {
	if offline {
		return pipeline.StubCapabilities(), nil
	}

	if cfg.Anthropic.Key == "" {
		return pipeline.Capabilities{}, eris.New("anthropic API key is required (ADVISOR_ANTHROPIC_KEY)")
	}
	if cfg.Tavily.Key == "" {
		return pipeline.Capabilities{}, eris.New("tavily API key is required (ADVISOR_TAVILY_KEY)")
	}
	if cfg.SerpAPI.Key == "" {
		return pipeline.Capabilities{}, eris.New("serpapi API key is required (ADVISOR_SERPAPI_KEY)")
	}

	anthropicClient := anthropicpkg.NewClient(cfg.Anthropic.Key)
	tavilyClient := tavily.NewClient(cfg.Tavily.Key, tavily.WithBaseURL(cfg.Tavily.BaseURL))
	serpClient := serpapi.NewClient(cfg.SerpAPI.Key,
		serpapi.WithBaseURL(cfg.SerpAPI.BaseURL),
		serpapi.WithLocale(cfg.SerpAPI.Country, cfg.Tavily.Region),
		serpapi.WithCurrency(cfg.SerpAPI.Currency))

	claude := pipeline.NewClaudeCapabilities(anthropicClient, cfg.Anthropic)
	searcher := pipeline.NewTavilySearcher(tavilyClient)

	return pipeline.Capabilities{
		Identifier: claude,
		Reviews:    searcher,
		Prices:     pipeline.NewSerpSearcher(serpClient),
		Web:        searcher,
		Extractor:  claude,
		Assessor:   claude,
		Narrator:   claude,
	}, nil
}
