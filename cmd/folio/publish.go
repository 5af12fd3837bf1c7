package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aellingwood/folio/internal/publish"
)

// publishFlagKeys maps publish flags to config override keys.
var publishFlagKeys = map[string]string{
	"bucket":       "bucket",
	"region":       "region",
	"prefix":       "prefix",
	"distribution": "distribution",
	"delete":       "delete",
}

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Upload generated assets to S3",
	Long: "Upload the converted images, presentation pages and PDFs to an S3 bucket.\n" +
		"Only new or changed files are sent. When a CloudFront distribution is\n" +
		"configured the changed paths are invalidated.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := applyOverrides(cmd, cfg, publishFlagKeys); err != nil {
			return err
		}
		pc := cfg.Publish
		if pc.Bucket == "" {
			return fmt.Errorf("%w: set publish.bucket or pass --bucket", publish.ErrNoBucket)
		}
		root, err := projectRoot()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		entries, err := publish.Scan(root, pc.Paths, pc.Prefix)
		if err != nil {
			return err
		}
		store, inv, err := publish.NewAWS(ctx, pc.Bucket, pc.Region)
		if err != nil {
			return err
		}

		dryRun, _ := cmd.Flags().GetBool("dry-run")
		opts := publish.Options{
			Bucket:       pc.Bucket,
			Prefix:       pc.Prefix,
			Distribution: pc.Distribution,
			Delete:       pc.Delete,
			DryRun:       dryRun,
			Paths:        pc.Paths,
		}
		res, err := publish.Publish(ctx, opts, entries, store, inv)
		if err != nil {
			return err
		}
		printPublishResult(cmd, pc.Bucket, res, dryRun)

		if len(res.Errors) > 0 {
			return fmt.Errorf("%d publish operations failed", len(res.Errors))
		}
		return nil
	},
}

func init() {
	publishCmd.Flags().String("bucket", "", "destination S3 bucket")
	publishCmd.Flags().String("region", "", "AWS region")
	publishCmd.Flags().String("prefix", "", "key prefix inside the bucket")
	publishCmd.Flags().String("distribution", "", "CloudFront distribution ID to invalidate")
	publishCmd.Flags().Bool("delete", false, "delete remote objects that no longer exist locally")
	publishCmd.Flags().Bool("dry-run", false, "show what would be published without uploading")

	rootCmd.AddCommand(publishCmd)
}

func printPublishResult(cmd *cobra.Command, bucket string, res *publish.Result, dryRun bool) {
	out := cmd.OutOrStdout()
	if dryRun || verbose(cmd) {
		for _, a := range res.Actions {
			if dryRun {
				fmt.Fprintf(out, "[dry-run] %s: %s\n", a.Op, a.Key)
			} else {
				fmt.Fprintf(out, "%s: %s\n", a.Op, a.Key)
			}
		}
	}
	for _, err := range res.Errors {
		warnf("%v", err)
	}
	verb := "Published"
	if dryRun {
		verb = "Would publish"
	}
	fmt.Fprintf(out, "%s to s3://%s: %d uploaded, %d deleted, %d unchanged\n",
		verb, bucket, res.Uploaded, res.Deleted, res.Skipped)
	if len(res.Invalidated) > 0 {
		verb = "Invalidated"
		if dryRun {
			verb = "Would invalidate"
		}
		fmt.Fprintf(out, "%s %d CloudFront paths\n", verb, len(res.Invalidated))
	}
}
