package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"VerseClash/config"
	"VerseClash/logger"
	"VerseClash/storage"

	"github.com/spf13/cobra"
)

var (
	minioPrefix    string
	minioRecursive bool
	minioDelete    bool
)

var minioCmd = &cobra.Command{
	Use:   "minio",
	Short: "Inspect published mixes in the MinIO bucket",
	Long:  `List objects under a prefix in the configured bucket, with size statistics, and optionally delete a prefix (e.g. the mixes of an expired battle).`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		logger.InitLogger(logger.Config{Level: logger.InfoLevel})

		if err := storage.InitMinio(cfg); err != nil {
			log.Fatalf("Failed to connect to MinIO: %v", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if minioDelete {
			if minioPrefix == "" {
				log.Fatal("Refusing to delete without an explicit --prefix")
			}
			removed, err := storage.RemoveObjects(ctx, cfg.MinioBucket, minioPrefix)
			if err != nil {
				log.Fatalf("Failed to remove objects: %v", err)
			}
			fmt.Printf("Removed %d object(s) under %s\n", removed, minioPrefix)
			return
		}

		objects, stats, err := storage.ListBucketObjects(ctx, cfg.MinioBucket, minioPrefix, minioRecursive)
		if err != nil {
			log.Fatalf("Failed to list objects: %v", err)
		}

		fmt.Printf("Bucket: %s  Prefix: %q\n", cfg.MinioBucket, minioPrefix)
		fmt.Printf("Objects: %d  Total size: %s\n", stats.TotalObjects, storage.FormatSize(stats.TotalSize))
		for _, obj := range objects {
			fmt.Printf("  %s  %s  %s\n", obj.Key, storage.FormatSize(obj.Size), obj.LastModified.Format(time.RFC3339))
		}
	},
}

func init() {
	minioCmd.Flags().StringVar(&minioPrefix, "prefix", "battles/", "Object key prefix to list")
	minioCmd.Flags().BoolVar(&minioRecursive, "recursive", true, "Recurse into sub-prefixes")
	minioCmd.Flags().BoolVar(&minioDelete, "delete", false, "Delete everything under the prefix")
	rootCmd.AddCommand(minioCmd)
}
