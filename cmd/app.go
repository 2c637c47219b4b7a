package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/viper"
	weaviateClient "github.com/weaviate/weaviate-go-client/v4/weaviate"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/auth"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"chatbotrag/src/core/chatbot"
	"chatbotrag/src/core/chunking"
	"chatbotrag/src/extract"
	"chatbotrag/src/infrastructure/integrations/ollama"
	"chatbotrag/src/infrastructure/integrations/openai"
	"chatbotrag/src/log"
	"chatbotrag/src/storage/minioctrl"
	"chatbotrag/src/storage/postgres/chatbotctrl"
	"chatbotrag/src/storage/weaviate"
)

// app holds the services shared by the serve, worker and ingest commands
type app struct {
	db      *gorm.DB
	store   *chatbotctrl.ChatbotService
	service *chatbot.Service
	health  map[string]chatbot.HealthChecker
}

func openDatabase() (*gorm.DB, error) {
	host := viper.GetString("postgres.host")
	user := viper.GetString("postgres.user")
	password := viper.GetString("postgres.password")
	dbname := viper.GetString("postgres.db")
	port := viper.GetString("postgres.port")

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		host, user, password, dbname, port)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func newSplitter() (*chunking.Splitter, error) {
	opts := []chunking.Option{
		chunking.WithChunkSize(viper.GetInt("chunking.size")),
		chunking.WithChunkOverlap(viper.GetInt("chunking.overlap")),
	}
	if seps := viper.GetStringSlice("chunking.separators"); len(seps) > 0 {
		opts = append(opts, chunking.WithSeparators(seps))
	}
	return chunking.NewSplitter(opts...)
}

// newModels returns the configured language model and embedder. The
// HealthChecker is nil for providers without a health endpoint.
func newModels() (chatbot.LLMProvider, chatbot.Embedder, chatbot.HealthChecker, error) {
	switch provider := viper.GetString("llm.provider"); provider {
	case "openai":
		c, err := openai.NewClient(openai.Config{
			APIKey:         viper.GetString("openai.api_key"),
			Model:          viper.GetString("openai.model"),
			EmbeddingModel: viper.GetString("openai.embedding_model"),
			BaseURL:        viper.GetString("openai.base_url"),
		})
		if err != nil {
			return nil, nil, nil, err
		}
		return c, c, nil, nil
	case "ollama":
		c, err := ollama.NewClient(
			viper.GetString("ollama.url"),
			&http.Client{Timeout: 5 * time.Minute},
			viper.GetString("ollama.model"),
			viper.GetString("ollama.embed_model"),
		)
		if err != nil {
			return nil, nil, nil, err
		}
		return c, c, c, nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown llm provider %q", provider)
	}
}

func newWeaviateSDK() (*weaviate.SDK, error) {
	cfg := weaviateClient.Config{
		Host:   viper.GetString("weaviate.host"),
		Scheme: viper.GetString("weaviate.scheme"),
	}
	if key := viper.GetString("weaviate.api_key"); key != "" {
		cfg.AuthConfig = auth.ApiKey{Value: key}
	}

	wc, err := weaviateClient.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create weaviate client: %w", err)
	}
	return weaviate.NewSDK(wc), nil
}

func newArchive(ctx context.Context) (*minioctrl.KnowledgeArchive, error) {
	minioService, err := minioctrl.NewMinioService(
		viper.GetString("minio.endpoint"),
		viper.GetString("minio.access_key"),
		viper.GetString("minio.secret_key"),
		viper.GetBool("minio.use_ssl"),
	)
	if err != nil {
		return nil, err
	}

	archive := minioctrl.NewKnowledgeArchive(minioService, viper.GetString("minio.bucket"))
	if err := archive.Init(ctx); err != nil {
		return nil, fmt.Errorf("failed to prepare knowledge bucket: %w", err)
	}
	return archive, nil
}

// buildApp connects every backing service and assembles the chatbot service
func buildApp(ctx context.Context) (*app, error) {
	db, err := openDatabase()
	if err != nil {
		return nil, err
	}

	store, err := chatbotctrl.NewChatbotService(db)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		return nil, err
	}

	sdk, err := newWeaviateSDK()
	if err != nil {
		return nil, err
	}
	index := weaviate.NewChunkIndex(sdk)

	archive, err := newArchive(ctx)
	if err != nil {
		return nil, err
	}

	llm, embedder, modelHealth, err := newModels()
	if err != nil {
		return nil, err
	}

	splitter, err := newSplitter()
	if err != nil {
		return nil, err
	}

	indexer := chatbot.NewIndexer(index, embedder, splitter)
	service := chatbot.NewService(store, indexer, extract.New(), llm,
		chatbot.WithArchive(archive),
		chatbot.WithRetrieval(viper.GetInt("retrieval.limit"), viper.GetFloat64("retrieval.max_distance")),
		chatbot.WithHistoryWindow(viper.GetInt("chat.history_window")),
		chatbot.WithGenerateOptions(chatbot.GenerateOptions{
			MaxTokens:   viper.GetInt("chat.max_tokens"),
			Temperature: viper.GetFloat64("chat.temperature"),
		}),
	)

	health := map[string]chatbot.HealthChecker{
		"postgres": store,
		"weaviate": index,
		"minio":    archive,
	}
	if modelHealth != nil {
		health["llm"] = modelHealth
	}

	log.Info("services ready",
		"llm_provider", viper.GetString("llm.provider"),
		"chunk_size", splitter.ChunkSize(),
		"chunk_overlap", splitter.ChunkOverlap(),
	)

	return &app{
		db:      db,
		store:   store,
		service: service,
		health:  health,
	}, nil
}

func (a *app) Close() {
	sqlDB, err := a.db.DB()
	if err != nil {
		log.Error(err, "Failed to get underlying *sql.DB")
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Error(err, "Error closing database connection")
	}
}
