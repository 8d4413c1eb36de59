package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bucketfs/bucketfs/internal/cliutil"
)

var cpCmd = &cobra.Command{
	Use:   "cp <bucket> <src-path> <dst-path>",
	Short: "Copy a file within a bucket",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		bucketName, src, dst := args[0], args[1], args[2]

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

		ident, err := mgr.CopyFile(ctx, src, dst)
		if err != nil {
			return err
		}

		format, err := cliutil.ParseFormat(outputFormat)
		if err != nil {
			return err
		}
		if format == cliutil.FormatTable {
			fmt.Printf("copied %s -> %s\n", src, ident.FilePath)
			return nil
		}
		return cliutil.Print(cmd.OutOrStdout(), format, ident)
	},
}
