package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"chatbotrag/src/core/chatbot"
	"chatbotrag/src/fsutil"
	"chatbotrag/src/log"
)

var (
	ingestName   string
	ingestPrompt string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest DIR",
	Short: "Create a chatbot from every file in a directory",
	Long: `The ingest command reads every file under DIR (hidden files excluded) and
creates a chatbot whose knowledge base holds their extracted text.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().StringVar(&ingestName, "name", "", "chatbot name")
	ingestCmd.Flags().StringVar(&ingestPrompt, "prompt", "", "system prompt")
	_ = ingestCmd.MarkFlagRequired("name")
	_ = ingestCmd.MarkFlagRequired("prompt")
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	uploads, err := readUploadDir(fsutil.NewLocalFileStore(), args[0], cmd)
	if err != nil {
		return err
	}

	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	bot, err := a.service.Create(ctx, chatbot.CreateRequest{
		Name:         ingestName,
		SystemPrompt: ingestPrompt,
		Uploads:      uploads,
	})
	if err != nil {
		return err
	}

	log.Info("chatbot ingested", "chatbot", bot.Name, "files", len(uploads), "documents", len(bot.KnowledgeBase))
	fmt.Fprintf(cmd.OutOrStdout(), "created %s with %d of %d files\n", bot.Name, len(bot.KnowledgeBase), len(uploads))
	return nil
}

func readUploadDir(store fsutil.FileStore, dir string, cmd *cobra.Command) ([]chatbot.Upload, error) {
	files, err := store.ListFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no files found in %s", dir)
	}

	stat, err := store.GetFileStats(files)
	if err != nil {
		return nil, err
	}

	bar := progressbar.NewOptions64(stat.Size,
		progressbar.OptionSetDescription(fmt.Sprintf("reading %d files", stat.Count)),
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionShowBytes(true),
		progressbar.OptionClearOnFinish(),
	)

	uploads := make([]chatbot.Upload, 0, len(files))
	for _, path := range files {
		data, err := store.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			rel = filepath.Base(path)
		}
		uploads = append(uploads, chatbot.Upload{
			Filename: filepath.ToSlash(rel),
			Data:     data,
		})
		_ = bar.Add(len(data))
	}
	_ = bar.Finish()

	return uploads, nil
}
