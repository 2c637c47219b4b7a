package cmd

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill-amqp/pkg/amqp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"chatbotrag/src/infrastructure/job"
	"chatbotrag/src/log"
)

var reindexAsync bool

var reindexCmd = &cobra.Command{
	Use:   "reindex NAME",
	Short: "Rebuild a chatbot's vector index from its stored knowledge base",
	Long: `The reindex command re-chunks and re-embeds a chatbot's knowledge base and
replaces its index. With --async the work is queued for the worker instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runReindex,
}

func init() {
	rootCmd.AddCommand(reindexCmd)
	reindexCmd.Flags().BoolVar(&reindexAsync, "async", false, "enqueue a job for the worker instead of reindexing here")
}

func runReindex(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	name := args[0]

	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if !reindexAsync {
		chunks, err := a.service.Reindex(ctx, name)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "reindexed %s: %d chunks\n", name, chunks)
		return nil
	}

	jobRepo := job.NewPostgresJobRepository(a.db)
	if err := jobRepo.Migrate(ctx); err != nil {
		return err
	}

	logger := log.NewWatermillAdapter("amqp")
	publisher, err := amqp.NewPublisher(amqp.NewDurableQueueConfig(viper.GetString("amqp.url")), logger)
	if err != nil {
		return fmt.Errorf("failed to create publisher: %w", err)
	}
	defer publisher.Close()

	jobService := job.NewJobService(publisher, jobRepo, logger, a.service)
	j, err := jobService.EnqueueReindex(ctx, name)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "enqueued job %d to reindex %s\n", j.ID, name)
	return nil
}
