// Package s3presign generates time-limited, pre-authenticated HTTPS URLs
// granting read access to single objects in S3-compatible buckets, using
// AWS Signature Version 4 query-string signing and no cloud SDK.
//
// The pipeline runs four stages per Sign call, left to right:
//
//   - credential resolution: the target URI plus ambient configuration
//     becomes a Credentials value (see the credentials package)
//   - canonical request construction: credentials, timestamp and expiry
//     become a sorted, encoded query string and a canonical request
//   - signature computation: an HMAC-SHA256 key-derivation chain turns
//     the canonical request into a hex signature
//   - URL assembly: the signature is appended and the target is rewritten
//     to the virtual-hosted S3 endpoint
//
// No state is retained across calls; the only shared resource is the
// per-endpoint HTTP connection pool in the fetch package, used by the
// instance-profile credential path.
//
// # Example Usage
//
//	resolver := credentials.NewResolver(store, fetch.NewPool())
//	signer := s3presign.NewSigner(resolver)
//
//	url, err := signer.Sign(ctx, "s3://examplebucket/test.txt", 86400)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	// url is a presigned download link valid for one day.
//
// See the config package for the s3_source configuration table, the http
// package for the presign HTTP service, and cmd/s3presign for the CLI.
package s3presign
