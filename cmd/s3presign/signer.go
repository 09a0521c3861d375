package main

import (
	"github.com/pkgfetch/s3presign"
	"github.com/pkgfetch/s3presign/config"
	"github.com/pkgfetch/s3presign/credentials"
	"github.com/pkgfetch/s3presign/fetch"
)

// newSigner wires the signing pipeline from a loaded config: one
// connection pool shared by metadata fetches and downloads, a resolver
// reading the s3_source table, and the signer on top.
func newSigner(cfg *config.Config) (*s3presign.Signer, *fetch.Pool) {
	pool := fetch.NewPool()

	var opts []credentials.Option
	if cfg.Sign.MetadataEndpoint != "" {
		opts = append(opts, credentials.WithMetadataEndpoint(cfg.Sign.MetadataEndpoint))
	}

	resolver := credentials.NewResolver(cfg, pool, opts...)
	return s3presign.NewSigner(resolver), pool
}
