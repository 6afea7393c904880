package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/kozaktomas/facegate/internal/config"
	"github.com/kozaktomas/facegate/internal/facematch"
	"github.com/spf13/cobra"
)

var studentsCmd = &cobra.Command{
	Use:   "students",
	Short: "List enrolled students",
	Long: `List enrolled students in enrollment order.
The optional --search filter is diacritic-insensitive, so "lopez"
finds "López".`,
	RunE: runStudents,
}

func init() {
	rootCmd.AddCommand(studentsCmd)

	studentsCmd.Flags().String("search", "", "Filter by name or code")
}

func runStudents(cmd *cobra.Command, args []string) error {
	search := facematch.NormalizeStudentName(mustGetString(cmd, "search"))

	ctx := context.Background()
	cfg := config.Load()

	backend, closeBackend, err := openSnapshotBackend(cfg)
	if err != nil {
		return err
	}
	defer closeBackend()

	r := loadRoster(ctx, backend)

	shown := 0
	for _, s := range r.Snapshot() {
		if search != "" &&
			!strings.Contains(facematch.NormalizeStudentName(s.Name), search) &&
			!strings.Contains(facematch.NormalizeStudentName(s.Code), search) {
			continue
		}
		fmt.Printf("%4d  %-12s  %-30s  %d dims  %s\n",
			s.ID, s.Code, s.Name, s.Dim(), s.EnrolledAt.Format("2006-01-02"))
		shown++
	}

	if search != "" {
		fmt.Printf("%d of %d students matched\n", shown, r.Count())
	}
	return nil
}
