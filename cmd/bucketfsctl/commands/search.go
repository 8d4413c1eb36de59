package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bucketfs/bucketfs/internal/cliutil"
	"github.com/bucketfs/bucketfs/pkg/catalog"
)

var (
	searchDir       string
	searchLimit     int
	searchRecursive bool
	searchThreshold float64
)

type searchTable []catalog.SearchResult

func (t searchTable) Headers() []string { return []string{"SCORE", "PATH", "DESCRIPTION"} }

func (t searchTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, r := range t {
		rows = append(rows, []string{fmt.Sprintf("%.3f", r.Score), r.FilePath, r.Description})
	}
	return rows
}

var searchCmd = &cobra.Command{
	Use:   "search <bucket> <query>",
	Short: "Search descriptions for matching files",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		bucketName, query := args[0], args[1]
		var dir []string
		if searchDir != "" {
			dir = strings.Split(strings.Trim(searchDir, "/"), "/")
		}

		cfg, err := loadedConfig()
		if err != nil {
			return err
		}
		reg, err := openRegistry(cfg)
		if err != nil {
			return err
		}

		ctx := context.Background()
		mgr, cleanup, err := openBucket(ctx, cfg, reg, bucketName)
		if err != nil {
			return err
		}
		defer cleanup()

		results, err := mgr.SearchFile(ctx, dir, query, searchLimit, searchRecursive, searchThreshold)
		if err != nil {
			return err
		}

		format, err := cliutil.ParseFormat(outputFormat)
		if err != nil {
			return err
		}
		return cliutil.Print(cmd.OutOrStdout(), format, searchTable(results))
	},
}

func init() {
	searchCmd.Flags().StringVar(&searchDir, "dir", "", "Directory to search within (default: bucket root)")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 20, "Maximum results to return")
	searchCmd.Flags().BoolVar(&searchRecursive, "recursive", false, "Search subdirectories too")
	searchCmd.Flags().Float64Var(&searchThreshold, "threshold", 0, "Minimum match score")
}
