package commands

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <bucket> <path> [local-file]",
	Short: "Read a file's content, writing to stdout unless local-file is given",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		bucketName, path := args[0], args[1]

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

		file, err := mgr.ReadFile(ctx, path)
		if err != nil {
			return err
		}
		defer file.Reader().Close()

		var w io.Writer = os.Stdout
		if len(args) == 3 && args[2] != "-" {
			f, err := os.Create(args[2])
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}

		_, err = io.Copy(w, file.Reader())
		return err
	},
}
