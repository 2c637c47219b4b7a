package weaviate

import (
	"context"
	"fmt"
	"strings"

	"github.com/weaviate/weaviate/entities/models"

	"chatbotrag/src/core/chatbot"
)

const classPrefix = "Chatbot_"

const (
	propContent    = "content"
	propChunkIndex = "chunk_index"
	propFilename   = "filename"
	propFileType   = "file_type"
)

var chunkProperties = []*models.Property{
	{Name: propContent, DataType: []string{"text"}},
	{Name: propChunkIndex, DataType: []string{"int"}},
	{Name: propFilename, DataType: []string{"text"}},
	{Name: propFileType, DataType: []string{"text"}},
}

// ChunkIndex stores each chatbot's chunks in its own Weaviate class.
// Vectors are supplied by the caller, so classes use no vectorizer.
type ChunkIndex struct {
	sdk *SDK
}

var _ chatbot.VectorIndex = (*ChunkIndex)(nil)

func NewChunkIndex(sdk *SDK) *ChunkIndex {
	return &ChunkIndex{sdk: sdk}
}

// ClassName maps a chatbot name to its class: "Chatbot_" followed by the
// name with ASCII letters and digits kept and every other rune, '_'
// included, written as "_<hex code point>_". Distinct names always get
// distinct classes.
func ClassName(chatbotName string) string {
	var b strings.Builder
	b.WriteString(classPrefix)
	for _, r := range chatbotName {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			fmt.Fprintf(&b, "_%x_", r)
		}
	}
	return b.String()
}

// CollectionName reports the class backing the chatbot
func (i *ChunkIndex) CollectionName(chatbotName string) string {
	return ClassName(chatbotName)
}

func (i *ChunkIndex) Exists(ctx context.Context, chatbotName string) (bool, error) {
	return i.sdk.ClassExists(ctx, ClassName(chatbotName))
}

func (i *ChunkIndex) Create(ctx context.Context, chatbotName string) error {
	return i.sdk.CreateSchema(ctx, ClassName(chatbotName), chunkProperties, "none")
}

func (i *ChunkIndex) Drop(ctx context.Context, chatbotName string) error {
	return i.sdk.DeleteSchema(ctx, ClassName(chatbotName))
}

func (i *ChunkIndex) Insert(ctx context.Context, chatbotName string, records []chatbot.IndexRecord) error {
	objects := make([]VectorObject, len(records))
	for n, r := range records {
		objects[n] = VectorObject{
			Vector: r.Vector,
			Properties: map[string]interface{}{
				propContent:    r.Content,
				propChunkIndex: r.ChunkIndex,
				propFilename:   r.Filename,
				propFileType:   r.Type,
			},
		}
	}
	return i.sdk.BatchAddVectors(ctx, ClassName(chatbotName), objects)
}

func (i *ChunkIndex) Search(ctx context.Context, chatbotName string, vector []float32, limit int, maxDistance float64) ([]chatbot.RetrievedChunk, error) {
	results, err := i.sdk.QueryVectors(ctx, ClassName(chatbotName), vector, QueryConfig{
		Fields:   []string{propContent, propChunkIndex, propFilename, propFileType},
		Limit:    limit,
		Distance: maxDistance,
	})
	if err != nil {
		return nil, err
	}

	chunks := make([]chatbot.RetrievedChunk, len(results))
	for n, r := range results {
		chunks[n] = toRetrievedChunk(r)
	}
	return chunks, nil
}

func (i *ChunkIndex) Ping(ctx context.Context) error {
	return i.sdk.Ready(ctx)
}

func toRetrievedChunk(r QueryResult) chatbot.RetrievedChunk {
	c := chatbot.RetrievedChunk{Distance: r.Distance}
	c.Content, _ = r.Properties[propContent].(string)
	c.Filename, _ = r.Properties[propFilename].(string)
	c.Type, _ = r.Properties[propFileType].(string)

	switch v := r.Properties[propChunkIndex].(type) {
	case float64:
		c.ChunkIndex = int(v)
	case int:
		c.ChunkIndex = v
	}

	return c
}
