package s3presign

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	SignatureAlgorithm = "AWS4-HMAC-SHA256"
	DateTimeFormat     = "20060102T150405Z"
	DateFormat         = "20060102"
	DefaultRegion      = "us-east-1"

	unsignedPayload = "UNSIGNED-PAYLOAD"
)

// CredentialResolver turns a target URI into the credentials that should
// sign it. Implementations report missing configuration with
// ErrConfiguration and metadata-service failures with ErrInstanceProfile.
type CredentialResolver interface {
	Resolve(ctx context.Context, target *url.URL) (Credentials, error)
}

// Signer produces presigned S3 download URLs.
type Signer struct {
	resolver CredentialResolver
	now      func() time.Time
}

// SignerOption configures a Signer.
type SignerOption func(*Signer)

// WithClock overrides the wall clock, primarily for tests.
func WithClock(now func() time.Time) SignerOption {
	return func(s *Signer) {
		s.now = now
	}
}

// NewSigner creates a Signer that resolves credentials through resolver.
func NewSigner(resolver CredentialResolver, opts ...SignerOption) *Signer {
	s := &Signer{
		resolver: resolver,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sign resolves credentials for rawURI and returns a presigned HTTPS URL
// for a GET of the object, valid for expires seconds. The host component
// of rawURI is the bucket; the URL is rewritten to the virtual-hosted S3
// endpoint for the resolved region.
//
// Either a complete, correctly signed URL is returned or an error; there
// are no partial results. Expiration is not range-checked here, so
// expires=0 still yields a well-formed (immediately expired) URL.
func (s *Signer) Sign(ctx context.Context, rawURI string, expires int64) (string, error) {
	target, err := url.Parse(rawURI)
	if err != nil {
		return "", fmt.Errorf("parse target uri: %w", err)
	}

	creds, err := s.resolver.Resolve(ctx, target)
	if err != nil {
		return "", err
	}
	creds = creds.WithDefaults()

	path := target.EscapedPath()
	if path == "" {
		path = "/"
	}

	// The clock is read exactly once so the date, timestamp and
	// credential scope cannot straddle a midnight rollover.
	return presign(creds, VirtualHost(target.Host, creds.Region), path, s.now().UTC(), expires), nil
}

// VirtualHost returns the virtual-hosted S3 endpoint for a bucket in a
// region, e.g. "examplebucket.s3.us-east-1.amazonaws.com".
func VirtualHost(bucket, region string) string {
	return bucket + ".s3." + region + ".amazonaws.com"
}

// presign runs the canonical request, string-to-sign and signature stages
// against an already-resolved credential set and virtual host. Pure: the
// same inputs always produce the same URL.
func presign(creds Credentials, host, path string, t time.Time, expires int64) string {
	dateTime := t.Format(DateTimeFormat)
	date := t.Format(DateFormat)
	scope := credentialScope(date, creds.Region)

	query := canonicalQueryString(creds, dateTime, scope, expires)
	request := canonicalRequest(path, query, host)
	toSign := stringToSign(dateTime, scope, request)

	signingKey := deriveSigningKey(creds.SecretAccessKey, date, creds.Region)
	signature := hex.EncodeToString(hmacSHA256(signingKey, []byte(toSign)))

	return assembleURL(host, path, query, signature)
}

func credentialScope(date, region string) string {
	return date + "/" + region + "/s3/aws4_request"
}

var tokenEscaper = strings.NewReplacer(
	"\n", "",
	"+", "%2B",
	"/", "%2F",
	"=", "%3D",
)

// escapeToken encodes a query key or value. AWS access keys, tokens and
// the fixed parameter names use a restricted alphabet, so only newline
// stripping and the three unsafe characters + / = need handling; generic
// percent-encoding would be wasted work here.
func escapeToken(s string) string {
	return tokenEscaper.Replace(s)
}

// canonicalQueryString builds the signed query parameters, sorted
// byte-wise ascending by key. The signature covers this exact string, so
// the ordering is load-bearing.
func canonicalQueryString(creds Credentials, dateTime, scope string, expires int64) string {
	pairs := [][2]string{
		{"X-Amz-Algorithm", SignatureAlgorithm},
		{"X-Amz-Credential", creds.AccessKeyID + "/" + scope},
		{"X-Amz-Date", dateTime},
		{"X-Amz-Expires", strconv.FormatInt(expires, 10)},
		{"X-Amz-SignedHeaders", "host"},
	}
	if creds.SecurityToken != "" {
		pairs = append(pairs, [2]string{"X-Amz-Security-Token", creds.SecurityToken})
	}

	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i][0] < pairs[j][0]
	})

	var b strings.Builder
	for i, p := range pairs {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(escapeToken(p[0]))
		b.WriteByte('=')
		b.WriteString(escapeToken(p[1]))
	}
	return b.String()
}

// canonicalRequest formats the fixed-structure signature input: method,
// path, query, the single signed host header, the header block
// terminator, the signed-header list and the unsigned-payload marker.
func canonicalRequest(path, query, host string) string {
	return strings.Join([]string{
		"GET",
		path,
		query,
		"host:" + host,
		"",
		"host",
		unsignedPayload,
	}, "\n")
}

func stringToSign(dateTime, scope, canonicalRequest string) string {
	sum := sha256.Sum256([]byte(canonicalRequest))
	return strings.Join([]string{
		SignatureAlgorithm,
		dateTime,
		scope,
		hex.EncodeToString(sum[:]),
	}, "\n")
}

func deriveSigningKey(secretKey, date, region string) []byte {
	kDate := hmacSHA256([]byte("AWS4"+secretKey), []byte(date))
	kRegion := hmacSHA256(kDate, []byte(region))
	kService := hmacSHA256(kRegion, []byte("s3"))
	return hmacSHA256(kService, []byte("aws4_request"))
}

func hmacSHA256(key, data []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(data)
	return h.Sum(nil)
}

func assembleURL(host, path, query, signature string) string {
	return "https://" + host + path + "?" + query + "&X-Amz-Signature=" + signature
}
