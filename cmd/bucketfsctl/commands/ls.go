package commands

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bucketfs/bucketfs/internal/cliutil"
	"github.com/bucketfs/bucketfs/pkg/catalog"
)

var (
	lsLimit   int
	lsOffset  int
	lsOrderBy string
)

type lsTable []catalog.ListEntry

func (t lsTable) Headers() []string { return []string{"TYPE", "NAME"} }

func (t lsTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, e := range t {
		kind := "dir"
		if e.IsFile {
			kind = "file"
		}
		rows = append(rows, []string{kind, e.Name})
	}
	return rows
}

var lsCmd = &cobra.Command{
	Use:   "ls <bucket> [dir]",
	Short: "List entries in a directory",
	Long:  "List entries in a directory. dir is a slash-separated path; omit it for the bucket root.",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		bucketName := args[0]
		var dir []string
		if len(args) == 2 && args[1] != "" {
			dir = strings.Split(strings.Trim(args[1], "/"), "/")
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

		entries, err := mgr.List(ctx, dir, lsLimit, lsOffset, lsOrderBy)
		if err != nil {
			return err
		}

		format, err := cliutil.ParseFormat(outputFormat)
		if err != nil {
			return err
		}
		return cliutil.Print(cmd.OutOrStdout(), format, lsTable(entries))
	},
}

func init() {
	lsCmd.Flags().IntVar(&lsLimit, "limit", 100, "Maximum entries to return")
	lsCmd.Flags().IntVar(&lsOffset, "offset", 0, "Entries to skip")
	lsCmd.Flags().StringVar(&lsOrderBy, "order-by", "", "Column to order by (default: name)")
}
