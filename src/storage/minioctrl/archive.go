package minioctrl

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"chatbotrag/src/core/chatbot"
)

// KnowledgeArchive keeps every chatbot's raw uploads under "<chatbot>/<filename>"
type KnowledgeArchive struct {
	svc    *MinioService
	bucket string
}

var _ chatbot.FileArchive = (*KnowledgeArchive)(nil)

func NewKnowledgeArchive(svc *MinioService, bucket string) *KnowledgeArchive {
	if bucket == "" {
		bucket = DefaultKnowledgeBucket
	}
	return &KnowledgeArchive{svc: svc, bucket: bucket}
}

// ObjectName returns the key an upload is stored under
func ObjectName(chatbotName, filename string) string {
	return chatbotPrefix(chatbotName) + path.Base(strings.ReplaceAll(filename, "\\", "/"))
}

func chatbotPrefix(chatbotName string) string {
	return strings.ReplaceAll(chatbotName, "/", "_") + "/"
}

func (a *KnowledgeArchive) Init(ctx context.Context) error {
	return a.svc.EnsureBucketExists(ctx, a.bucket)
}

func (a *KnowledgeArchive) Store(ctx context.Context, chatbotName string, upload chatbot.Upload) error {
	return a.svc.PutObject(ctx, a.bucket, ObjectName(chatbotName, upload.Filename), upload.ContentType, upload.Data)
}

func (a *KnowledgeArchive) RemoveAll(ctx context.Context, chatbotName string) error {
	names, err := a.svc.ListObjects(ctx, a.bucket, chatbotPrefix(chatbotName))
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return nil
	}
	return a.svc.DeleteObjects(ctx, a.bucket, names)
}

// Load returns a previously archived upload
func (a *KnowledgeArchive) Load(ctx context.Context, chatbotName, filename string) ([]byte, error) {
	data, err := a.svc.GetObject(ctx, a.bucket, ObjectName(chatbotName, filename))
	if errors.Is(err, ErrObjectNotFound) {
		return nil, fmt.Errorf("%w: %s", chatbot.ErrFileNotFound, filename)
	}
	return data, err
}

func (a *KnowledgeArchive) Ping(ctx context.Context) error {
	_, err := a.svc.client.BucketExists(ctx, a.bucket)
	return err
}
