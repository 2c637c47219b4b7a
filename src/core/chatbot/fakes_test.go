package chatbot_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"chatbotrag/src/core/chatbot"
	"chatbotrag/src/core/chunking"
)

type memStore struct {
	mu        sync.Mutex
	bots      map[string]*chatbot.Chatbot
	exchanges map[string][]chatbot.Exchange
	createErr error
	nextID    int
}

func newMemStore() *memStore {
	return &memStore{
		bots:      make(map[string]*chatbot.Chatbot),
		exchanges: make(map[string][]chatbot.Exchange),
	}
}

func (s *memStore) CreateChatbot(_ context.Context, bot *chatbot.Chatbot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.createErr != nil {
		return s.createErr
	}
	if _, ok := s.bots[bot.Name]; ok {
		return chatbot.ErrChatbotExists
	}
	s.nextID++
	bot.ID = fmt.Sprint(s.nextID)
	bot.CreatedAt = time.Now()
	bot.UpdatedAt = bot.CreatedAt
	cp := *bot
	s.bots[bot.Name] = &cp
	return nil
}

func (s *memStore) GetChatbot(_ context.Context, name string) (*chatbot.Chatbot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bot, ok := s.bots[name]
	if !ok {
		return nil, nil
	}
	cp := *bot
	return &cp, nil
}

func (s *memStore) ListChatbots(_ context.Context) ([]chatbot.Chatbot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var bots []chatbot.Chatbot
	for _, b := range s.bots {
		bots = append(bots, *b)
	}
	sort.Slice(bots, func(i, j int) bool { return bots[i].Name < bots[j].Name })
	return bots, nil
}

func (s *memStore) UpdateChatbot(_ context.Context, bot *chatbot.Chatbot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.bots[bot.Name]; !ok {
		return chatbot.ErrChatbotNotFound
	}
	cp := *bot
	s.bots[bot.Name] = &cp
	return nil
}

func (s *memStore) DeactivateChatbot(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.bots, name)
	return nil
}

func (s *memStore) SaveExchange(_ context.Context, name string, ex chatbot.Exchange) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.exchanges[name] = append(s.exchanges[name], ex)
	return nil
}

func (s *memStore) ListExchanges(_ context.Context, name string, limit int) ([]chatbot.Exchange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.exchanges[name]
	if limit > 0 && len(all) > limit {
		all = all[len(all)-limit:]
	}
	return append([]chatbot.Exchange(nil), all...), nil
}

func (s *memStore) ClearExchanges(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.exchanges, name)
	return nil
}

type memIndex struct {
	mu          sync.Mutex
	collections map[string][]chatbot.IndexRecord
	creates     int
	drops       int
	inserts     int
	searchErr   error
}

func newMemIndex() *memIndex {
	return &memIndex{collections: make(map[string][]chatbot.IndexRecord)}
}

func (m *memIndex) Exists(_ context.Context, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.collections[name]
	return ok, nil
}

func (m *memIndex) Create(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.collections[name]; ok {
		return fmt.Errorf("collection %s already exists", name)
	}
	m.collections[name] = []chatbot.IndexRecord{}
	m.creates++
	return nil
}

func (m *memIndex) Drop(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.collections, name)
	m.drops++
	return nil
}

func (m *memIndex) Insert(_ context.Context, name string, records []chatbot.IndexRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.collections[name]; !ok {
		return fmt.Errorf("collection %s does not exist", name)
	}
	m.collections[name] = append(m.collections[name], records...)
	m.inserts++
	return nil
}

func (m *memIndex) Search(_ context.Context, name string, _ []float32, limit int, _ float64) ([]chatbot.RetrievedChunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.searchErr != nil {
		return nil, m.searchErr
	}
	var out []chatbot.RetrievedChunk
	for _, r := range m.collections[name] {
		if len(out) == limit {
			break
		}
		out = append(out, chatbot.RetrievedChunk{Chunk: r.Chunk, Distance: 0.1})
	}
	return out, nil
}

func (m *memIndex) contents(name string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []string
	for _, r := range m.collections[name] {
		out = append(out, r.Content)
	}
	return out
}

// sharedIndex stores every chatbot in one collection
type sharedIndex struct {
	*memIndex
}

const sharedCollection = "shared"

func (s sharedIndex) CollectionName(string) string { return sharedCollection }

func (s sharedIndex) Exists(ctx context.Context, _ string) (bool, error) {
	return s.memIndex.Exists(ctx, sharedCollection)
}

func (s sharedIndex) Create(ctx context.Context, _ string) error {
	return s.memIndex.Create(ctx, sharedCollection)
}

func (s sharedIndex) Drop(ctx context.Context, _ string) error {
	return s.memIndex.Drop(ctx, sharedCollection)
}

func (s sharedIndex) Insert(ctx context.Context, _ string, records []chatbot.IndexRecord) error {
	return s.memIndex.Insert(ctx, sharedCollection, records)
}

func (s sharedIndex) Search(ctx context.Context, _ string, vector []float32, limit int, maxDistance float64) ([]chatbot.RetrievedChunk, error) {
	return s.memIndex.Search(ctx, sharedCollection, vector, limit, maxDistance)
}

type fakeEmbedder struct {
	calls int
	err   error
	mu    sync.Mutex
}

func (e *fakeEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.calls++
	err := e.err
	e.mu.Unlock()
	if err != nil {
		return nil, err
	}

	vectors := make([][]float32, len(texts))
	for i, t := range texts {
		vectors[i] = []float32{float32(len(t)), 1}
	}
	return vectors, nil
}

func (e *fakeEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return []float32{float32(len(text)), 1}, nil
}

type fakeLLM struct {
	answer   string
	err      error
	messages []chatbot.Message
	opts     chatbot.GenerateOptions
}

func (l *fakeLLM) Chat(_ context.Context, messages []chatbot.Message, opts chatbot.GenerateOptions) (string, error) {
	l.messages = messages
	l.opts = opts
	return l.answer, l.err
}

// fakeExtractor treats upload bytes as text and fails on content "corrupt"
type fakeExtractor struct{}

func (fakeExtractor) Extract(_ context.Context, filename, contentType string, data []byte) (chunking.Document, error) {
	if strings.TrimSpace(string(data)) == "corrupt" {
		return chunking.Document{}, errors.New("cannot read file")
	}
	return chunking.Document{Filename: filename, Content: string(data), Type: contentType}, nil
}

type memArchive struct {
	mu    sync.Mutex
	files map[string][]string
	data  map[string][]byte
}

func newMemArchive() *memArchive {
	return &memArchive{files: make(map[string][]string), data: make(map[string][]byte)}
}

func (a *memArchive) Store(_ context.Context, name string, up chatbot.Upload) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.files[name] = append(a.files[name], up.Filename)
	a.data[name+"/"+up.Filename] = up.Data
	return nil
}

func (a *memArchive) RemoveAll(_ context.Context, name string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, f := range a.files[name] {
		delete(a.data, name+"/"+f)
	}
	delete(a.files, name)
	return nil
}

func (a *memArchive) Load(_ context.Context, name, filename string) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	data, ok := a.data[name+"/"+filename]
	if !ok {
		return nil, chatbot.ErrFileNotFound
	}
	return data, nil
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }
