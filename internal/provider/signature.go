package provider

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// SignatureHeader carries the webhook signature, computed by the provider
// over the callback URL concatenated with the raw request body.
const SignatureHeader = "X-Provider-Signature"

// ComputeSignature returns the base64 HMAC-SHA256 of url+body under secret.
func ComputeSignature(secret, url string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(url))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a received signature in constant time.
func VerifySignature(secret, url string, body []byte, signature string) bool {
	expected := ComputeSignature(secret, url, body)
	return hmac.Equal([]byte(expected), []byte(signature))
}
