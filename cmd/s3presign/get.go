package main

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"

	"github.com/spf13/cobra"

	"github.com/pkgfetch/s3presign/config"
)

var getCmd = &cobra.Command{
	Use:   "get <uri>",
	Short: "Sign and download an S3 object",
	Long: `Generate a presigned URL for an object and download it.

By default the object is written to the current directory under its
base name. Use -o to pick a destination, or "-o -" for stdout.

Examples:
  s3presign get s3://examplebucket/pkg-1.2.3.tar.gz
  s3presign get -o /tmp/pkg.tar.gz s3://examplebucket/pkg-1.2.3.tar.gz
  s3presign get -o - s3://examplebucket/manifest.json`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

var getOutput string

func init() {
	getCmd.Flags().StringVarP(&getOutput, "output", "o", "", "destination file (\"-\" for stdout)")
	rootCmd.AddCommand(getCmd)
}

func runGet(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	signer, pool := newSigner(cfg)

	signed, err := signer.Sign(cmd.Context(), args[0], cfg.Sign.Expires)
	if err != nil {
		return fmt.Errorf("sign %s: %w", args[0], err)
	}

	resp, err := pool.Do(cmd.Context(), signed)
	if err != nil {
		return fmt.Errorf("download %s: %w", args[0], err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download %s: unexpected status %s", args[0], resp.Status)
	}

	dest, err := destination(args[0], getOutput)
	if err != nil {
		return err
	}

	var out io.Writer
	if dest == "-" {
		out = cmd.OutOrStdout()
	} else {
		f, createErr := os.Create(dest) //nolint:gosec // Destination comes from the user's own flag
		if createErr != nil {
			return fmt.Errorf("create %s: %w", dest, createErr)
		}
		defer func() { _ = f.Close() }()
		out = f
	}

	n, err := io.Copy(out, resp.Body)
	if err != nil {
		return fmt.Errorf("write %s: %w", dest, err)
	}

	if dest != "-" {
		slog.Info("downloaded", "uri", args[0], "dest", dest, "bytes", n)
	}
	return nil
}

// destination picks the local path for a download: the -o flag when
// given, else the base name of the object path.
func destination(rawURI, output string) (string, error) {
	if output != "" {
		return output, nil
	}

	u, err := url.Parse(rawURI)
	if err != nil {
		return "", fmt.Errorf("parse target uri: %w", err)
	}

	name := path.Base(u.Path)
	if name == "/" || name == "." || name == "" {
		return "", fmt.Errorf("cannot derive a file name from %s, use -o", rawURI)
	}
	return name, nil
}
