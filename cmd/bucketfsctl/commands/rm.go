package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bucketfs/bucketfs/internal/cliutil"
)

var rmForce bool

var rmCmd = &cobra.Command{
	Use:   "rm <bucket> <path>",
	Short: "Remove a file from a bucket",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		bucketName, path := args[0], args[1]

		confirmed, err := cliutil.ConfirmWithForce(fmt.Sprintf("Remove %s/%s?", bucketName, path), rmForce)
		if err != nil {
			if cliutil.IsAborted(err) {
				fmt.Println("Aborted.")
				return nil
			}
			return err
		}
		if !confirmed {
			fmt.Println("Aborted.")
			return nil
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

		if err := mgr.RemoveFile(ctx, path); err != nil {
			return err
		}
		fmt.Printf("removed %s/%s\n", bucketName, path)
		return nil
	},
}

func init() {
	rmCmd.Flags().BoolVarP(&rmForce, "force", "f", false, "Skip confirmation prompt")
}
