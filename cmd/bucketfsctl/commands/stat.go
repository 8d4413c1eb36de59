package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bucketfs/bucketfs/internal/cliutil"
)

type statResult struct {
	Path        string `json:"path" yaml:"path"`
	IsFile      bool   `json:"is_file" yaml:"is_file"`
	IsDirectory bool   `json:"is_directory" yaml:"is_directory"`
}

func (r statResult) Headers() []string { return []string{"PATH", "IS_FILE", "IS_DIRECTORY"} }
func (r statResult) Rows() [][]string {
	return [][]string{{r.Path, fmt.Sprint(r.IsFile), fmt.Sprint(r.IsDirectory)}}
}

var statCmd = &cobra.Command{
	Use:   "stat <bucket> <path>",
	Short: "Report whether a path is a file, a directory, or neither",
	Args:  cobra.ExactArgs(2),
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

		isFile, isDir, err := mgr.Stat(ctx, path)
		if err != nil {
			return err
		}

		format, err := cliutil.ParseFormat(outputFormat)
		if err != nil {
			return err
		}
		return cliutil.Print(cmd.OutOrStdout(), format, statResult{Path: path, IsFile: isFile, IsDirectory: isDir})
	},
}
