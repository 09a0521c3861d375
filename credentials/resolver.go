// Package credentials resolves the credential/region tuple used to sign
// a target S3 URI, from embedded userinfo, the s3_source configuration
// table, process environment variables, or the EC2 instance metadata
// service.
package credentials

import (
	"context"
	"fmt"
	"net/url"
	"os"

	"github.com/pkgfetch/s3presign"
	"github.com/pkgfetch/s3presign/fetch"
)

// Provider values recognized in an s3_source entry. Any other value, or
// an absent provider, selects the explicit id/secret fields of the entry.
const (
	ProviderEnv             = "env"
	ProviderInstanceProfile = "instance_profile"
)

// Environment variables read by the env provider.
const (
	EnvAccessKeyID     = "AWS_ACCESS_KEY_ID"
	EnvSecretAccessKey = "AWS_SECRET_ACCESS_KEY"
	EnvSessionToken    = "AWS_SESSION_TOKEN"
)

// Source is one entry of the s3_source configuration table, keyed by
// bucket host. All fields are optional; which ones matter depends on the
// selected provider.
type Source struct {
	Provider      string
	ID            string
	Secret        string
	SecurityToken string
	Region        string
}

// SourceStore looks up the s3_source entry for a bucket host. The second
// return value is false when the table has no entry for the host.
type SourceStore interface {
	Source(host string) (Source, bool)
}

// MapSourceStore is an in-memory SourceStore, keyed by bucket host.
// Suitable for tests and embedded use.
type MapSourceStore map[string]Source

// Source returns the entry for host.
func (m MapSourceStore) Source(host string) (Source, bool) {
	src, ok := m[host]
	return src, ok
}

// Resolver resolves credentials for S3 targets. It holds no per-call
// state; the injected fetcher owns the only shared resource (the
// connection pool for metadata requests).
type Resolver struct {
	store    SourceStore
	fetcher  fetch.Fetcher
	environ  func(key string) string
	endpoint string
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithEnviron overrides environment lookups, primarily for tests.
func WithEnviron(environ func(key string) string) Option {
	return func(r *Resolver) {
		r.environ = environ
	}
}

// WithMetadataEndpoint overrides the instance metadata URL. The default
// is the fixed link-local endpoint; tests point this at a local server.
func WithMetadataEndpoint(uri string) Option {
	return func(r *Resolver) {
		r.endpoint = uri
	}
}

// NewResolver creates a Resolver reading source entries from store and
// issuing metadata requests through fetcher.
func NewResolver(store SourceStore, fetcher fetch.Fetcher, opts ...Option) *Resolver {
	r := &Resolver{
		store:    store,
		fetcher:  fetcher,
		environ:  os.Getenv,
		endpoint: DefaultMetadataEndpoint,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve applies the resolution precedence, first match wins:
//
//  1. Userinfo embedded in the target is used directly as access key and
//     secret, region fixed to the default; nothing else is consulted.
//  2. The s3_source table must hold an entry for the target host, else
//     ErrConfiguration.
//  3. The entry's provider selects the sub-strategy: "env" reads the
//     AWS_* environment variables, "instance_profile" performs one GET
//     against the metadata endpoint, anything else takes the entry's
//     explicit id/secret fields.
//  4. The region comes from the entry when present, defaulting otherwise.
//
// Once a provider is selected only its fields are consulted; there is no
// backtracking between branches.
func (r *Resolver) Resolve(ctx context.Context, target *url.URL) (s3presign.Credentials, error) {
	if target.User != nil && target.User.Username() != "" {
		secret, _ := target.User.Password()
		return s3presign.Credentials{
			AccessKeyID:     target.User.Username(),
			SecretAccessKey: secret,
			Region:          s3presign.DefaultRegion,
		}, nil
	}

	if r.store == nil {
		return s3presign.Credentials{}, fmt.Errorf("no s3_source table configured: %w", s3presign.ErrConfiguration)
	}

	src, ok := r.store.Source(target.Host)
	if !ok {
		return s3presign.Credentials{}, fmt.Errorf("no s3_source entry for host %q: %w", target.Host, s3presign.ErrConfiguration)
	}

	var creds s3presign.Credentials
	var err error
	switch src.Provider {
	case ProviderEnv:
		creds = r.fromEnv()
	case ProviderInstanceProfile:
		creds, err = r.fromInstanceProfile(ctx)
		if err != nil {
			return s3presign.Credentials{}, err
		}
	default:
		creds, err = fromEntry(target.Host, src)
		if err != nil {
			return s3presign.Credentials{}, err
		}
	}

	creds.Region = src.Region
	return creds.WithDefaults(), nil
}

// fromEnv reads credentials from the process environment. A missing
// session token is fine; the token is optional everywhere.
func (r *Resolver) fromEnv() s3presign.Credentials {
	return s3presign.Credentials{
		AccessKeyID:     r.environ(EnvAccessKeyID),
		SecretAccessKey: r.environ(EnvSecretAccessKey),
		SecurityToken:   r.environ(EnvSessionToken),
	}
}

// fromEntry takes the explicit credential fields of an s3_source entry.
func fromEntry(host string, src Source) (s3presign.Credentials, error) {
	if src.ID == "" {
		return s3presign.Credentials{}, fmt.Errorf("s3_source entry for host %q is missing id: %w", host, s3presign.ErrConfiguration)
	}
	if src.Secret == "" {
		return s3presign.Credentials{}, fmt.Errorf("s3_source entry for host %q is missing secret: %w", host, s3presign.ErrConfiguration)
	}
	return s3presign.Credentials{
		AccessKeyID:     src.ID,
		SecretAccessKey: src.Secret,
		SecurityToken:   src.SecurityToken,
	}, nil
}
