package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pkgfetch/s3presign/config"
)

var signCmd = &cobra.Command{
	Use:   "sign <uri>",
	Short: "Print a presigned URL for an S3 object",
	Long: `Generate a presigned download URL for a single object and print it
to stdout.

The host component of the URI is the bucket; credentials for it are
resolved from embedded userinfo, the s3_source table, the environment,
or the instance metadata service.

Examples:
  # Sign with the configured default expiry
  s3presign sign s3://examplebucket/pkg-1.2.3.tar.gz

  # Sign with a ten minute expiry
  s3presign sign --expires 600 s3://examplebucket/pkg-1.2.3.tar.gz

  # Embedded credentials bypass all configuration
  s3presign sign s3://AKIA...:secret@examplebucket/pkg-1.2.3.tar.gz`,
	Args: cobra.ExactArgs(1),
	RunE: runSign,
}

func init() {
	signCmd.Flags().Int64("expires", 86400, "URL validity in seconds")
	rootCmd.AddCommand(signCmd)
}

func runSign(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	signer, _ := newSigner(cfg)

	signed, err := signer.Sign(cmd.Context(), args[0], cfg.Sign.Expires)
	if err != nil {
		return fmt.Errorf("sign %s: %w", args[0], err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), signed)
	return nil
}
