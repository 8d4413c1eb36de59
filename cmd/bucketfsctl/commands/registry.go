package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/bucketfs/bucketfs/internal/cliutil"
	"github.com/bucketfs/bucketfs/pkg/bucketname"
	"github.com/bucketfs/bucketfs/pkg/registry"
)

var registryCmd = &cobra.Command{
	Use:   "registry",
	Short: "Manage the bucket registry",
	Long:  "Manage the bucket registry: the administrative index of which buckets exist and where their storage lives.",
}

type bucketTable []registry.Bucket

func (t bucketTable) Headers() []string { return []string{"NAME", "STORAGE_ROOT", "CREATED_AT"} }

func (t bucketTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, b := range t {
		rows = append(rows, []string{b.Name, b.StorageRoot, b.CreatedAt.Format("2006-01-02T15:04:05Z07:00")})
	}
	return rows
}

var createBucketCmd = &cobra.Command{
	Use:   "create-bucket <name>",
	Short: "Register a new bucket and provision its storage root",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if _, err := bucketname.Parse(name); err != nil {
			return err
		}

		cfg, err := loadedConfig()
		if err != nil {
			return err
		}
		reg, err := openRegistry(cfg)
		if err != nil {
			return err
		}

		id, err := uuid.NewRandom()
		if err != nil {
			return fmt.Errorf("allocate bucket id: %w", err)
		}
		storageRoot := filepath.Join(cfg.Storage.Root, name)

		bucket, err := reg.CreateBucket(context.Background(), id.String(), name, storageRoot)
		if err != nil {
			return err
		}

		format, err := cliutil.ParseFormat(outputFormat)
		if err != nil {
			return err
		}
		if format == cliutil.FormatTable {
			fmt.Printf("created bucket %q at %s\n", bucket.Name, bucket.StorageRoot)
			return nil
		}
		return cliutil.Print(cmd.OutOrStdout(), format, bucket)
	},
}

var listBucketsCmd = &cobra.Command{
	Use:   "list-buckets",
	Short: "List every registered bucket",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadedConfig()
		if err != nil {
			return err
		}
		reg, err := openRegistry(cfg)
		if err != nil {
			return err
		}

		buckets, err := reg.ListBuckets(context.Background())
		if err != nil {
			return err
		}

		format, err := cliutil.ParseFormat(outputFormat)
		if err != nil {
			return err
		}
		return cliutil.Print(cmd.OutOrStdout(), format, bucketTable(buckets))
	},
}

var deleteBucketForce bool

var deleteBucketCmd = &cobra.Command{
	Use:   "delete-bucket <name>",
	Short: "Remove a bucket's registry record",
	Long:  "Remove a bucket's registry record. This does not delete the bucket's catalog database or blob store; remove those separately.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		confirmed, err := cliutil.ConfirmWithForce(fmt.Sprintf("Delete bucket %q from the registry?", name), deleteBucketForce)
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

		if err := reg.DeleteBucket(context.Background(), name); err != nil {
			return err
		}
		fmt.Printf("deleted bucket %q from the registry\n", name)
		return nil
	},
}

func init() {
	deleteBucketCmd.Flags().BoolVarP(&deleteBucketForce, "force", "f", false, "Skip confirmation prompt")
	registryCmd.AddCommand(createBucketCmd)
	registryCmd.AddCommand(listBucketsCmd)
	registryCmd.AddCommand(deleteBucketCmd)
}
