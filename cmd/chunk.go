package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"chatbotrag/src/core/chunking"
	"chatbotrag/src/extract"
)

var (
	chunkSize    int
	chunkOverlap int
	chunkType    string
)

var chunkCmd = &cobra.Command{
	Use:   "chunk FILE",
	Short: "Split a local file into chunks and print them",
	Long: `The chunk command extracts the text of a file the same way uploads are
extracted and prints the resulting chunk records as JSON, one per line.
Nothing is embedded or stored.`,
	Args: cobra.ExactArgs(1),
	RunE: runChunk,
}

func init() {
	rootCmd.AddCommand(chunkCmd)
	chunkCmd.Flags().IntVar(&chunkSize, "size", 0, "maximum chunk length in characters (default chunking.size)")
	chunkCmd.Flags().IntVar(&chunkOverlap, "overlap", -1, "characters shared by consecutive chunks (default chunking.overlap)")
	chunkCmd.Flags().StringVar(&chunkType, "type", "", "content type of the file, detected when empty")
}

func runChunk(cmd *cobra.Command, args []string) error {
	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	doc, err := extract.New().Extract(cmd.Context(), filepath.Base(path), chunkType, data)
	if err != nil {
		return fmt.Errorf("failed to extract %s: %w", path, err)
	}

	size := viper.GetInt("chunking.size")
	if cmd.Flags().Changed("size") {
		size = chunkSize
	}
	overlap := viper.GetInt("chunking.overlap")
	if cmd.Flags().Changed("overlap") {
		overlap = chunkOverlap
	}

	splitter, err := chunking.NewSplitter(chunking.WithChunkSize(size), chunking.WithChunkOverlap(overlap))
	if err != nil {
		return err
	}

	chunks, err := splitter.ChunkDocument(doc)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	for _, c := range chunks {
		if err := enc.Encode(c); err != nil {
			return err
		}
	}
	return nil
}
