// Package http provides the presign HTTP service.
//
// The service exposes two endpoints:
//
//	GET /healthz          liveness probe
//	GET /v1/sign          presign a configured S3 source
//
// /v1/sign takes a uri query parameter naming the target object
// (s3://bucket/path) and an optional expires parameter in seconds, and
// answers with JSON:
//
//	{"url": "https://bucket.s3.us-east-1.amazonaws.com/...", "expires": 86400}
//
// Error mapping: an unknown or incomplete s3_source entry answers 404,
// a failing instance metadata service answers 502, malformed input 400.
//
// # Usage
//
//	handlerCfg := http.HandlerConfig{DefaultExpires: 86400}
//	handler := http.NewHandler(&handlerCfg, signer)
//	http.ListenAndServe(":8642", handler.Router())
//
// The signer parameter is satisfied by *s3presign.Signer.
package http
