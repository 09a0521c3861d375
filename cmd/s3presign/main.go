package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pkgfetch/s3presign/config"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "s3presign",
	Short:   "Presigned S3 download URLs without a cloud SDK",
	Long: `s3presign generates time-limited, pre-authenticated HTTPS URLs for
objects in S3-compatible buckets, using AWS Signature V4 query-string
signing. Credentials come from the s3_source configuration table, the
environment, or the EC2 instance metadata service.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configFiles, _ := cmd.Flags().GetStringArray("config")

		cfg, err := config.Load(configFiles, cmd.Flags())
		if err != nil {
			return err
		}

		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		setupLogging(cfg.Log)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringArray("config", nil, "config file path, repeatable (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (env: S3PRESIGN_LOG_LEVEL)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
