package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/kozaktomas/facegate/internal/config"
	"github.com/kozaktomas/facegate/internal/embedder"
	"github.com/kozaktomas/facegate/internal/enrollment"
	"github.com/kozaktomas/facegate/internal/roster"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var bulkEnrollCmd = &cobra.Command{
	Use:   "bulk-enroll <directory>",
	Short: "Enroll every face image in a directory",
	Long: `Enroll every face image in a directory.
File names (without extension) become student names; codes are generated.
Images that fail embedding (no face, multiple faces) are reported and
skipped - no partial records are created for them.

Examples:
  # Enroll a class photo folder with 4 concurrent embedding requests
  facegate bulk-enroll ./class-2026

  # Slower sidecar, reduce concurrency
  facegate bulk-enroll ./class-2026 --concurrency 2`,
	Args: cobra.ExactArgs(1),
	RunE: runBulkEnroll,
}

func init() {
	rootCmd.AddCommand(bulkEnrollCmd)

	bulkEnrollCmd.Flags().Int("concurrency", 4, "Number of parallel embedding requests")
}

// isImageFile reports whether the file looks like a supported image.
func isImageFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png", ".webp":
		return true
	}
	return false
}

// embedImages runs the embedding step for all files with bounded
// concurrency. Appends to the roster stay sequential afterwards so
// student IDs follow directory order.
func embedImages(ctx context.Context, provider embedder.Provider, files []string, concurrency int, bar *progressbar.ProgressBar) ([]*embedder.FaceEmbedding, []error) {
	embeddings := make([]*embedder.FaceEmbedding, len(files))
	errs := make([]error, len(files))

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	for i, file := range files {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, file string) {
			defer wg.Done()
			defer func() { <-sem }()
			defer bar.Add(1)

			imageData, err := os.ReadFile(file)
			if err != nil {
				errs[i] = fmt.Errorf("reading %s: %w", file, err)
				return
			}
			prepared, err := embedder.PrepareImage(imageData)
			if err != nil {
				errs[i] = fmt.Errorf("preparing %s: %w", file, err)
				return
			}
			face, err := provider.EmbedFace(ctx, prepared)
			if err != nil {
				errs[i] = fmt.Errorf("embedding %s: %w", file, err)
				return
			}
			embeddings[i] = face
		}(i, file)
	}
	wg.Wait()
	return embeddings, errs
}

func runBulkEnroll(cmd *cobra.Command, args []string) error {
	concurrency := mustGetInt(cmd, "concurrency")
	if concurrency < 1 {
		concurrency = 1
	}

	ctx := context.Background()
	cfg := config.Load()

	entries, err := os.ReadDir(args[0])
	if err != nil {
		return fmt.Errorf("reading directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && isImageFile(entry.Name()) {
			files = append(files, filepath.Join(args[0], entry.Name()))
		}
	}
	if len(files) == 0 {
		return fmt.Errorf("no image files found in %s", args[0])
	}

	backend, closeBackend, err := openSnapshotBackend(cfg)
	if err != nil {
		return err
	}
	defer closeBackend()

	r := loadRoster(ctx, backend)
	enroller := enrollment.New(r, nil)

	fmt.Printf("Embedding %d images...\n", len(files))
	bar := progressbar.Default(int64(len(files)))
	embeddings, errs := embedImages(ctx, newEmbedder(cfg), files, concurrency, bar)

	enrolled, skipped := 0, 0
	for i, face := range embeddings {
		if errs[i] != nil {
			fmt.Printf("Skipped: %v\n", errs[i])
			skipped++
			continue
		}

		name := strings.TrimSuffix(filepath.Base(files[i]), filepath.Ext(files[i]))
		var area *roster.Region
		if face.FacialArea != nil {
			area = &roster.Region{X: face.FacialArea.X, Y: face.FacialArea.Y, W: face.FacialArea.W, H: face.FacialArea.H}
		}
		if _, err := enroller.EnrollVector(ctx, face.Embedding, area, "", name); err != nil {
			fmt.Printf("Skipped %s: %v\n", files[i], err)
			skipped++
			continue
		}
		enrolled++
	}

	fmt.Printf("Enrolled %d students, skipped %d (roster now holds %d)\n", enrolled, skipped, r.Count())
	return nil
}
