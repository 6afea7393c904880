package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/kozaktomas/facegate/internal/config"
	"github.com/kozaktomas/facegate/internal/enrollment"
	"github.com/spf13/cobra"
)

var enrollCmd = &cobra.Command{
	Use:   "enroll <image>",
	Short: "Enroll a student from a face image",
	Long: `Enroll a student from a face image.
The image is sent to the embedding sidecar; the resulting embedding is
appended to the roster and the durable snapshot is rewritten.

Examples:
  # Enroll with explicit code and name
  facegate enroll maria.jpg --code STU-042 --name "María López"

  # Enroll with generated placeholders
  facegate enroll unknown.jpg`,
	Args: cobra.ExactArgs(1),
	RunE: runEnroll,
}

func init() {
	rootCmd.AddCommand(enrollCmd)

	enrollCmd.Flags().String("code", "", "Enrollment code (defaults to generated)")
	enrollCmd.Flags().String("name", "", "Student display name (defaults to Unknown)")
}

func runEnroll(cmd *cobra.Command, args []string) error {
	code := mustGetString(cmd, "code")
	name := mustGetString(cmd, "name")

	ctx := context.Background()
	cfg := config.Load()

	backend, closeBackend, err := openSnapshotBackend(cfg)
	if err != nil {
		return err
	}
	defer closeBackend()

	r := loadRoster(ctx, backend)
	enroller := enrollment.New(r, newEmbedder(cfg))

	imageData, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading image: %w", err)
	}

	student, err := enroller.EnrollImage(ctx, imageData, code, name)
	if err != nil {
		return fmt.Errorf("enrollment failed: %w", err)
	}

	fmt.Printf("Enrolled %s (code %s, id %d, %d dimensions)\n", student.Name, student.Code, student.ID, student.Dim())
	return nil
}
