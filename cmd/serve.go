package cmd

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill-amqp/pkg/amqp"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	v2 "chatbotrag/handler/http/v2"
	"chatbotrag/src/core/chatbot"
	"chatbotrag/src/infrastructure/job"
	"chatbotrag/src/log"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the chatbot API server",
	Long:  `The serve command starts an HTTP server that manages chatbots and answers chat messages.`,
	RunE:  RunServer,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func RunServer(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := buildApp(ctx)
	if err != nil {
		log.Error(err, "Failed to initialize services")
		return err
	}
	defer a.Close()

	// Initialize job repository and AMQP publisher
	jobRepo := job.NewPostgresJobRepository(a.db)
	if err := jobRepo.Migrate(ctx); err != nil {
		return err
	}

	wmLogger := log.NewWatermillAdapter("amqp")
	publisher, err := amqp.NewPublisher(amqp.NewDurableQueueConfig(viper.GetString("amqp.url")), wmLogger)
	if err != nil {
		log.Error(err, "Failed to create AMQP publisher")
		return err
	}
	defer publisher.Close()

	jobService := job.NewJobService(publisher, jobRepo, wmLogger, a.service)

	handler := v2.NewHandler(a.service, jobService, chatbot.NewSystemService(a.health))

	// Setup gin router
	r := gin.Default()
	handler.RegisterRoutes(r)

	srv := &http.Server{
		Addr:    ":" + viper.GetString("server.port"),
		Handler: r,
	}

	// Start server in a goroutine
	go func() {
		log.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(err, "Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	timeout, err := time.ParseDuration(viper.GetString("server.shutdown_timeout"))
	if err != nil {
		log.Error(err, "Invalid shutdown timeout, using default 5s")
		timeout = 5 * time.Second
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(err, "Server forced to shutdown")
	}

	log.Info("Server exited")
	return nil
}
