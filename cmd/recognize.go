package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/kozaktomas/facegate/internal/config"
	"github.com/kozaktomas/facegate/internal/embedder"
	"github.com/kozaktomas/facegate/internal/recognition"
	"github.com/spf13/cobra"
)

var recognizeCmd = &cobra.Command{
	Use:   "recognize <image>",
	Short: "Recognize a face image against the enrolled population",
	Long: `Recognize a face image against the enrolled population.
The image is embedded by the sidecar and matched with cosine similarity.
Confidence is printed even when no student clears the threshold, so the
threshold can be tuned empirically.`,
	Args: cobra.ExactArgs(1),
	RunE: runRecognize,
}

func init() {
	rootCmd.AddCommand(recognizeCmd)
}

func runRecognize(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := config.Load()

	backend, closeBackend, err := openSnapshotBackend(cfg)
	if err != nil {
		return err
	}
	defer closeBackend()

	r := loadRoster(ctx, backend)
	recognizer := recognition.New(r, cfg.Matching.Threshold, nil)

	imageData, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading image: %w", err)
	}

	prepared, err := embedder.PrepareImage(imageData)
	if err != nil {
		return fmt.Errorf("preparing image: %w", err)
	}

	face, err := newEmbedder(cfg).EmbedFace(ctx, prepared)
	if err != nil {
		return fmt.Errorf("embedding failed: %w", err)
	}

	result, err := recognizer.Recognize(ctx, face.Embedding, "cli")
	if err != nil {
		return fmt.Errorf("recognition failed: %w", err)
	}

	if result.Matched {
		fmt.Printf("Match: %s (code %s, id %d) with confidence %.4f\n",
			result.Student.Name, result.Student.Code, result.Student.ID, result.Confidence)
	} else {
		fmt.Printf("No match (best confidence %.4f, threshold %.2f)\n", result.Confidence, recognizer.Threshold())
	}
	return nil
}
