package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"chatbotrag/src/log"
)

var rootCmd = &cobra.Command{
	Use:   "chatbotrag",
	Short: "Manage retrieval-augmented chatbots",
	Long: `chatbotrag runs chatbots that answer from their own knowledge base.
Uploaded files are split into overlapping chunks, embedded and stored per
chatbot in Weaviate; each chat message is answered with the closest chunks
as context.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// a missing .env file is fine
		_ = godotenv.Load()
		settingDefaultConfig()
		return log.Configure(viper.GetString("log.level"), viper.GetBool("log.development"))
	},
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
