package bootstrap

import (
	"fmt"

	"github.com/Htaaxx/NotebookLLM/internal/config"
	"github.com/Htaaxx/NotebookLLM/internal/core/clustering"
	"github.com/Htaaxx/NotebookLLM/internal/core/ports"
	"github.com/Htaaxx/NotebookLLM/internal/infrastructure/chunking"
	"github.com/Htaaxx/NotebookLLM/internal/infrastructure/extractor"
	htmlextractor "github.com/Htaaxx/NotebookLLM/internal/infrastructure/extractor/html"
	"github.com/Htaaxx/NotebookLLM/internal/infrastructure/extractor/pdf"
	"github.com/Htaaxx/NotebookLLM/internal/infrastructure/extractor/plaintext"
	"github.com/Htaaxx/NotebookLLM/internal/infrastructure/extractor/xlsx"
	"github.com/Htaaxx/NotebookLLM/internal/infrastructure/llm/ollama"
	"github.com/Htaaxx/NotebookLLM/internal/infrastructure/llm/openai"
	"github.com/Htaaxx/NotebookLLM/internal/infrastructure/resilience"
	"github.com/Htaaxx/NotebookLLM/internal/infrastructure/segmenter"
	vectormemory "github.com/Htaaxx/NotebookLLM/internal/infrastructure/vector/memory"
	"github.com/Htaaxx/NotebookLLM/internal/infrastructure/vector/qdrant"
)

// NewGatewayExecutor builds the retry and circuit-breaker policy shared by
// the LLM, vector store, queue and web gateways. observer may be nil.
func NewGatewayExecutor(cfg config.Config, observer resilience.Observer) *resilience.Executor {
	rc := resilience.DefaultConfig()
	rc.RetryMaxAttempts = cfg.RetryMaxAttempts
	rc.RetryInitialBackoff = cfg.RetryInitialBackoff
	rc.RetryMaxBackoff = cfg.RetryMaxBackoff
	rc.AttemptTimeout = cfg.GatewayTimeout
	rc.BreakerEnabled = cfg.BreakerEnabled
	rc.BreakerOpenTimeout = cfg.BreakerOpenTimeout
	rc.RetryJitter = 0.2
	rc.Observer = observer
	return resilience.NewExecutor(rc)
}

// NewLanguageModels returns the embedder and generator of the configured
// provider.
func NewLanguageModels(cfg config.Config, executor *resilience.Executor) (ports.Embedder, ports.Generator, error) {
	switch cfg.LLMProvider {
	case "", "ollama":
		client := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel, executor)
		return ollama.NewEmbedder(client), ollama.NewGenerator(client), nil
	case "openai":
		if cfg.OpenAIAPIKey == "" && cfg.OpenAIBaseURL == "" {
			return nil, nil, fmt.Errorf("LLM_PROVIDER=openai requires OPENAI_API_KEY or OPENAI_BASE_URL")
		}
		client := openai.New(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIChatModel, cfg.OpenAIEmbedModel, executor)
		return openai.NewEmbedder(client), openai.NewGenerator(client), nil
	default:
		return nil, nil, fmt.Errorf("unknown LLM_PROVIDER %q", cfg.LLMProvider)
	}
}

func NewVectorStore(cfg config.Config, executor *resilience.Executor) (ports.VectorStore, error) {
	switch cfg.VectorStore {
	case "", "qdrant":
		return qdrant.New(cfg.QdrantURL, cfg.QdrantAPIKey, cfg.QdrantCollection, executor), nil
	case "memory":
		return vectormemory.New(), nil
	default:
		return nil, fmt.Errorf("unknown VECTOR_STORE %q", cfg.VectorStore)
	}
}

// NewChunker returns the ingest splitter. The semantic strategy embeds
// every sentence window and so costs one embedding call per batch.
func NewChunker(cfg config.Config, embedder ports.Embedder) (ports.Chunker, error) {
	switch cfg.ChunkStrategy {
	case "", "recursive":
		return chunking.NewRecursiveSplitter(cfg.ChunkSize, cfg.ChunkOverlap), nil
	case "semantic":
		return NewSemanticChunker(cfg, embedder)
	default:
		return nil, fmt.Errorf("unknown CHUNK_STRATEGY %q", cfg.ChunkStrategy)
	}
}

func NewSemanticChunker(cfg config.Config, embedder ports.Embedder) (*chunking.SemanticChunker, error) {
	seg, err := segmenter.New()
	if err != nil {
		return nil, fmt.Errorf("init sentence segmenter: %w", err)
	}
	return chunking.NewSemanticChunker(seg, embedder, chunking.SemanticOptions{
		BufferSize:           cfg.SemanticBufferSize,
		BreakpointPercentile: cfg.SemanticBreakpointPercentile,
		BatchSize:            cfg.EmbeddingBatchSize,
	}), nil
}

func NewExtractor() *extractor.Dispatcher {
	plain := plaintext.NewExtractor()
	return extractor.NewDispatcher(map[extractor.Format]extractor.PageExtractor{
		extractor.FormatPDF:  pdf.NewExtractor(),
		extractor.FormatXLSX: xlsx.NewExtractor(),
		extractor.FormatHTML: htmlextractor.NewExtractor(),
		extractor.FormatText: plain,
	})
}

func NewClusterEngine(cfg config.Config) *clustering.Engine {
	cc := clustering.DefaultConfig()
	cc.Seed = cfg.KMeansSeed
	cc.NInit = cfg.KMeansNInit
	cc.MaxIter = cfg.KMeansMaxIter
	return clustering.NewEngine(cc)
}
