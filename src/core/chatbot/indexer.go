package chatbot

import (
	"context"
	"fmt"
	"sync"

	"chatbotrag/src/core/chunking"
	"chatbotrag/src/log"
)

const DefaultBatchSize = 100

// Indexer chunks documents, embeds the chunks and keeps each chatbot's
// vector collection in sync with its knowledge base.
type Indexer struct {
	index     VectorIndex
	embedder  Embedder
	splitter  *chunking.Splitter
	batchSize int
	locks     *keyedLocker
}

type IndexerOption func(*Indexer)

// WithBatchSize sets how many chunks are embedded and pushed per request
func WithBatchSize(n int) IndexerOption {
	return func(ix *Indexer) {
		if n > 0 {
			ix.batchSize = n
		}
	}
}

func NewIndexer(index VectorIndex, embedder Embedder, splitter *chunking.Splitter, opts ...IndexerOption) *Indexer {
	ix := &Indexer{
		index:     index,
		embedder:  embedder,
		splitter:  splitter,
		batchSize: DefaultBatchSize,
		locks:     newKeyedLocker(),
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Replace discards the chatbot's indexed chunks and indexes docs from
// scratch. Chunking and embedding happen before the collection is touched;
// the drop, recreate and push run under the chatbot's write lock so searches
// never observe a half-built collection.
func (ix *Indexer) Replace(ctx context.Context, chatbot string, docs []chunking.Document) (int, error) {
	chunks, err := ix.splitter.ChunkDocuments(docs)
	if err != nil {
		return 0, fmt.Errorf("failed to chunk documents: %w", err)
	}

	records, err := ix.embed(ctx, chunks)
	if err != nil {
		return 0, err
	}

	unlock := ix.locks.Lock(ix.lockKey(chatbot))
	defer unlock()

	exists, err := ix.index.Exists(ctx, chatbot)
	if err != nil {
		return 0, fmt.Errorf("failed to check index: %w", err)
	}
	if exists {
		if err := ix.index.Drop(ctx, chatbot); err != nil {
			return 0, fmt.Errorf("failed to drop index: %w", err)
		}
	}
	if err := ix.index.Create(ctx, chatbot); err != nil {
		return 0, fmt.Errorf("failed to create index: %w", err)
	}

	for start := 0; start < len(records); start += ix.batchSize {
		end := min(start+ix.batchSize, len(records))
		if err := ix.index.Insert(ctx, chatbot, records[start:end]); err != nil {
			return 0, fmt.Errorf("failed to push chunks %d-%d: %w", start, end, err)
		}
	}

	log.Info("index replaced", "chatbot", chatbot, "documents", len(docs), "chunks", len(records))
	return len(records), nil
}

// Drop removes the chatbot's collection if it exists
func (ix *Indexer) Drop(ctx context.Context, chatbot string) error {
	unlock := ix.locks.Lock(ix.lockKey(chatbot))
	defer unlock()

	exists, err := ix.index.Exists(ctx, chatbot)
	if err != nil {
		return fmt.Errorf("failed to check index: %w", err)
	}
	if !exists {
		return nil
	}
	return ix.index.Drop(ctx, chatbot)
}

// Search returns the chunks most similar to query
func (ix *Indexer) Search(ctx context.Context, chatbot, query string, limit int, maxDistance float64) ([]RetrievedChunk, error) {
	vector, err := ix.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	unlock := ix.locks.RLock(ix.lockKey(chatbot))
	defer unlock()

	return ix.index.Search(ctx, chatbot, vector, limit, maxDistance)
}

// lockKey names the collection the chatbot's chunks live in
func (ix *Indexer) lockKey(chatbot string) string {
	if n, ok := ix.index.(CollectionNamer); ok {
		return n.CollectionName(chatbot)
	}
	return chatbot
}

func (ix *Indexer) embed(ctx context.Context, chunks []chunking.Chunk) ([]IndexRecord, error) {
	records := make([]IndexRecord, 0, len(chunks))
	for start := 0; start < len(chunks); start += ix.batchSize {
		end := min(start+ix.batchSize, len(chunks))

		texts := make([]string, 0, end-start)
		for _, c := range chunks[start:end] {
			texts = append(texts, c.Content)
		}

		vectors, err := ix.embedder.EmbedDocuments(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("failed to embed chunks: %w", err)
		}
		if len(vectors) != len(texts) {
			return nil, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(texts))
		}

		for i, c := range chunks[start:end] {
			records = append(records, IndexRecord{Chunk: c, Vector: vectors[i]})
		}
	}
	return records, nil
}

// keyedLocker hands out one RWMutex per key and forgets it once unused.
type keyedLocker struct {
	mu    sync.Mutex
	locks map[string]*refLock
}

type refLock struct {
	sync.RWMutex
	refs int
}

func newKeyedLocker() *keyedLocker {
	return &keyedLocker{locks: make(map[string]*refLock)}
}

func (k *keyedLocker) acquire(key string) *refLock {
	k.mu.Lock()
	defer k.mu.Unlock()

	l, ok := k.locks[key]
	if !ok {
		l = &refLock{}
		k.locks[key] = l
	}
	l.refs++
	return l
}

func (k *keyedLocker) release(key string, l *refLock) {
	k.mu.Lock()
	defer k.mu.Unlock()

	l.refs--
	if l.refs == 0 {
		delete(k.locks, key)
	}
}

func (k *keyedLocker) Lock(key string) func() {
	l := k.acquire(key)
	l.Lock()
	return func() {
		l.Unlock()
		k.release(key, l)
	}
}

func (k *keyedLocker) RLock(key string) func() {
	l := k.acquire(key)
	l.RLock()
	return func() {
		l.RUnlock()
		k.release(key, l)
	}
}
