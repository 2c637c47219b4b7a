package chatbot

import (
	"context"
	"fmt"
	"strings"

	"chatbotrag/src/core/chunking"
	"chatbotrag/src/log"
)

const (
	DefaultRetrievalLimit = 20
	DefaultHistoryWindow  = 10
	DefaultMaxTokens      = 1000
	DefaultTemperature    = 0.7
)

// Service manages chatbots, their knowledge bases and conversations
type Service struct {
	store     MetadataStore
	indexer   *Indexer
	extractor Extractor
	llm       LLMProvider
	archive   FileArchive

	retrievalLimit int
	maxDistance    float64
	historyWindow  int
	generate       GenerateOptions
}

type Option func(*Service)

// WithArchive keeps a copy of every successfully extracted upload
func WithArchive(archive FileArchive) Option {
	return func(s *Service) {
		s.archive = archive
	}
}

// WithRetrieval sets how many chunks are fetched per chat message and the
// maximum distance they may have (0 disables the cutoff)
func WithRetrieval(limit int, maxDistance float64) Option {
	return func(s *Service) {
		if limit > 0 {
			s.retrievalLimit = limit
		}
		s.maxDistance = maxDistance
	}
}

// WithHistoryWindow sets how many past exchanges are replayed to the model
func WithHistoryWindow(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.historyWindow = n
		}
	}
}

func WithGenerateOptions(opts GenerateOptions) Option {
	return func(s *Service) {
		s.generate = opts
	}
}

func NewService(store MetadataStore, indexer *Indexer, extractor Extractor, llm LLMProvider, opts ...Option) *Service {
	s := &Service{
		store:          store,
		indexer:        indexer,
		extractor:      extractor,
		llm:            llm,
		retrievalLimit: DefaultRetrievalLimit,
		historyWindow:  DefaultHistoryWindow,
		generate: GenerateOptions{
			MaxTokens:   DefaultMaxTokens,
			Temperature: DefaultTemperature,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create extracts the uploads, indexes their chunks and stores the chatbot.
// Uploads that cannot be extracted are skipped.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Chatbot, error) {
	name := normalizeName(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidRequest)
	}
	if strings.TrimSpace(req.SystemPrompt) == "" {
		return nil, fmt.Errorf("%w: system prompt is required", ErrInvalidRequest)
	}

	existing, err := s.store.GetChatbot(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to look up chatbot: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s", ErrChatbotExists, name)
	}

	docs, extracted := s.extractUploads(ctx, name, req.Uploads)
	if len(req.Uploads) > 0 && len(docs) == 0 {
		return nil, ErrEmptyKnowledgeBase
	}

	chunks, err := s.indexer.Replace(ctx, name, docs)
	if err != nil {
		return nil, fmt.Errorf("failed to index knowledge base: %w", err)
	}

	bot := &Chatbot{
		Name:          name,
		SystemPrompt:  req.SystemPrompt,
		KnowledgeBase: docs,
	}
	if err := s.store.CreateChatbot(ctx, bot); err != nil {
		if dropErr := s.indexer.Drop(ctx, name); dropErr != nil {
			log.Error(dropErr, "failed to drop index after create failure", "chatbot", name)
		}
		return nil, fmt.Errorf("failed to save chatbot: %w", err)
	}
	s.archiveUploads(ctx, name, extracted)

	log.Info("chatbot created", "chatbot", name, "documents", len(docs), "chunks", chunks)
	return bot, nil
}

// Get returns the active chatbot with the given name. Surrounding whitespace
// in name is ignored, as it is on Create.
func (s *Service) Get(ctx context.Context, name string) (*Chatbot, error) {
	name = normalizeName(name)
	bot, err := s.store.GetChatbot(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get chatbot: %w", err)
	}
	if bot == nil {
		return nil, fmt.Errorf("%w: %s", ErrChatbotNotFound, name)
	}
	return bot, nil
}

func (s *Service) List(ctx context.Context) ([]Chatbot, error) {
	bots, err := s.store.ListChatbots(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list chatbots: %w", err)
	}
	return bots, nil
}

// Update changes the system prompt and/or knowledge base. Any knowledge base
// change rebuilds the chatbot's whole index.
func (s *Service) Update(ctx context.Context, name string, req UpdateRequest) (*Chatbot, error) {
	bot, err := s.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	name = bot.Name

	if req.SystemPrompt != nil {
		if strings.TrimSpace(*req.SystemPrompt) == "" {
			return nil, fmt.Errorf("%w: system prompt must not be empty", ErrInvalidRequest)
		}
		bot.SystemPrompt = *req.SystemPrompt
	}

	docs, extracted := s.extractUploads(ctx, name, req.Uploads)
	if len(req.Uploads) > 0 && len(docs) == 0 && len(req.Documents) == 0 {
		return nil, ErrEmptyKnowledgeBase
	}
	docs = append(docs, req.Documents...)

	knowledgeChanged := req.ReplaceKnowledge || len(docs) > 0
	if req.ReplaceKnowledge {
		bot.KnowledgeBase = mergeDocuments(nil, docs)
	} else {
		bot.KnowledgeBase = mergeDocuments(bot.KnowledgeBase, docs)
	}

	if knowledgeChanged {
		chunks, err := s.indexer.Replace(ctx, name, bot.KnowledgeBase)
		if err != nil {
			return nil, fmt.Errorf("failed to index knowledge base: %w", err)
		}
		log.Info("knowledge base updated", "chatbot", name, "documents", len(bot.KnowledgeBase), "chunks", chunks)
	}

	if err := s.store.UpdateChatbot(ctx, bot); err != nil {
		return nil, fmt.Errorf("failed to save chatbot: %w", err)
	}

	// the archive follows the stored knowledge base only once it is saved
	if req.ReplaceKnowledge && s.archive != nil {
		if err := s.archive.RemoveAll(ctx, name); err != nil {
			log.Error(err, "failed to clear archived files", "chatbot", name)
		}
	}
	s.archiveUploads(ctx, name, extracted)

	return bot, nil
}

// Reindex re-chunks the stored knowledge base and rebuilds the index
func (s *Service) Reindex(ctx context.Context, name string) (int, error) {
	bot, err := s.Get(ctx, name)
	if err != nil {
		return 0, err
	}

	chunks, err := s.indexer.Replace(ctx, bot.Name, bot.KnowledgeBase)
	if err != nil {
		return 0, fmt.Errorf("failed to index knowledge base: %w", err)
	}
	return chunks, nil
}

// Delete drops the chatbot's index and archived files, deactivates it and
// clears its chat history
func (s *Service) Delete(ctx context.Context, name string) error {
	bot, err := s.Get(ctx, name)
	if err != nil {
		return err
	}
	name = bot.Name

	if err := s.indexer.Drop(ctx, name); err != nil {
		return fmt.Errorf("failed to drop index: %w", err)
	}
	if s.archive != nil {
		if err := s.archive.RemoveAll(ctx, name); err != nil {
			log.Error(err, "failed to remove archived files", "chatbot", name)
		}
	}
	if err := s.store.DeactivateChatbot(ctx, name); err != nil {
		return fmt.Errorf("failed to deactivate chatbot: %w", err)
	}
	if err := s.store.ClearExchanges(ctx, name); err != nil {
		return fmt.Errorf("failed to clear chat history: %w", err)
	}

	log.Info("chatbot deleted", "chatbot", name)
	return nil
}

// File returns an original upload of the chatbot's knowledge base
func (s *Service) File(ctx context.Context, name, filename string) (*Upload, error) {
	bot, err := s.Get(ctx, name)
	if err != nil {
		return nil, err
	}

	var doc *chunking.Document
	for i := range bot.KnowledgeBase {
		if bot.KnowledgeBase[i].Filename == filename {
			doc = &bot.KnowledgeBase[i]
			break
		}
	}
	if doc == nil || s.archive == nil {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, filename)
	}

	data, err := s.archive.Load(ctx, bot.Name, filename)
	if err != nil {
		return nil, err
	}
	return &Upload{Filename: filename, ContentType: doc.Type, Data: data}, nil
}

// PreviewChunks chunks documents with the indexer's splitter without touching any index
func (s *Service) PreviewChunks(docs []chunking.Document) ([]chunking.Chunk, error) {
	return s.indexer.splitter.ChunkDocuments(docs)
}

// extractUploads returns the extracted documents and the uploads they came from
func (s *Service) extractUploads(ctx context.Context, chatbot string, uploads []Upload) ([]chunking.Document, []Upload) {
	docs := make([]chunking.Document, 0, len(uploads))
	extracted := make([]Upload, 0, len(uploads))
	for _, up := range uploads {
		doc, err := s.extractor.Extract(ctx, up.Filename, up.ContentType, up.Data)
		if err != nil {
			log.Error(err, "skipping file that could not be extracted", "chatbot", chatbot, "filename", up.Filename)
			continue
		}
		docs = append(docs, doc)
		extracted = append(extracted, up)
	}
	return docs, extracted
}

func (s *Service) archiveUploads(ctx context.Context, chatbot string, uploads []Upload) {
	if s.archive == nil {
		return
	}
	for _, up := range uploads {
		if err := s.archive.Store(ctx, chatbot, up); err != nil {
			log.Error(err, "failed to archive file", "chatbot", chatbot, "filename", up.Filename)
		}
	}
}

func normalizeName(name string) string {
	return strings.TrimSpace(name)
}

// mergeDocuments appends docs to base, replacing any document with the same filename in place
func mergeDocuments(base, docs []chunking.Document) []chunking.Document {
	merged := append([]chunking.Document(nil), base...)
	for _, doc := range docs {
		replaced := false
		for i := range merged {
			if merged[i].Filename == doc.Filename {
				merged[i] = doc
				replaced = true
				break
			}
		}
		if !replaced {
			merged = append(merged, doc)
		}
	}
	return merged
}

