package credentials

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pkgfetch/s3presign"
)

// DefaultMetadataEndpoint is the link-local EC2 instance metadata URL
// exposing the instance's temporary security credentials.
const DefaultMetadataEndpoint = "http://169.254.169.254/latest/meta-data/identity-credentials/ec2/security-credentials/ec2-instance"

type metadataCredentials struct {
	AccessKeyID     string `json:"AccessKeyId"`
	SecretAccessKey string `json:"SecretAccessKey"`
	Token           string `json:"Token"`
}

// fromInstanceProfile issues one GET against the metadata endpoint.
// There is no retry: anything but a 200 fails the call immediately, and
// transport errors from the fetcher propagate unwrapped.
func (r *Resolver) fromInstanceProfile(ctx context.Context) (s3presign.Credentials, error) {
	resp, err := r.fetcher.Fetch(ctx, r.endpoint)
	if err != nil {
		return s3presign.Credentials{}, err
	}

	if resp.StatusCode != http.StatusOK {
		return s3presign.Credentials{}, fmt.Errorf("instance metadata request to %s failed with status %d (%s): %w",
			r.endpoint, resp.StatusCode, resp.Status, s3presign.ErrInstanceProfile)
	}

	var mc metadataCredentials
	if err := json.Unmarshal(resp.Body, &mc); err != nil {
		return s3presign.Credentials{}, fmt.Errorf("parse instance metadata credentials: %w", err)
	}

	return s3presign.Credentials{
		AccessKeyID:     mc.AccessKeyID,
		SecretAccessKey: mc.SecretAccessKey,
		SecurityToken:   mc.Token,
	}, nil
}
