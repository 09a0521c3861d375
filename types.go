package s3presign

// Credentials is the resolved credential/region tuple used to sign a
// single request. It is a plain immutable value; every Sign call builds
// a fresh one and discards it afterwards.
type Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
	SecurityToken   string
	Region          string
}

// WithDefaults returns a copy with the default region filled in when
// the source did not specify one.
func (c Credentials) WithDefaults() Credentials {
	if c.Region == "" {
		c.Region = DefaultRegion
	}
	return c
}
