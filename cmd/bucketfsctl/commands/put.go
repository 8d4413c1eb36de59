package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/bucketfs/bucketfs/internal/cliutil"
	"github.com/bucketfs/bucketfs/pkg/manager"
)

var (
	putMimeType    string
	putDescription string
)

var putCmd = &cobra.Command{
	Use:   "put <bucket> <path> [local-file]",
	Short: "Write a file into a bucket, creating it",
	Long:  "Write a file into a bucket, creating it. Reads from stdin if local-file is omitted or \"-\".",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		bucketName, path := args[0], args[1]

		var r io.Reader = os.Stdin
		if len(args) == 3 && args[2] != "-" {
			f, err := os.Open(args[2])
			if err != nil {
				return err
			}
			defer f.Close()
			r = f
		}

		data, err := io.ReadAll(r)
		if err != nil {
			return fmt.Errorf("read input: %w", err)
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

		opts := manager.WriteOptions{}
		if putMimeType != "" {
			opts.MimeType = putMimeType
			opts.HasMimeType = true
		}
		if putDescription != "" {
			opts.Description = &putDescription
			opts.HasDescription = true
		}

		ident, err := mgr.WriteFile(ctx, path, data, opts)
		if err != nil {
			return err
		}

		format, err := cliutil.ParseFormat(outputFormat)
		if err != nil {
			return err
		}
		if format == cliutil.FormatTable {
			fmt.Printf("wrote %s/%s (%d bytes)\n", ident.BucketName, ident.FilePath, len(data))
			return nil
		}
		return cliutil.Print(cmd.OutOrStdout(), format, ident)
	},
}

func init() {
	putCmd.Flags().StringVar(&putMimeType, "mime-type", "", "MIME type to record")
	putCmd.Flags().StringVar(&putDescription, "description", "", "Free-text description to record")
}
