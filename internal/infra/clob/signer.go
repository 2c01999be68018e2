package clob

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"time"
)

// Signer handles CLOB API authentication.
// Keys are stored as []byte so they can be wiped from memory on shutdown.
type Signer struct {
	apiKey     []byte
	apiSecret  []byte
	passphrase []byte
}

// NewSigner creates a new signer.
func NewSigner(apiKey, apiSecret, passphrase string) *Signer {
	return &Signer{
		apiKey:     []byte(apiKey),
		apiSecret:  []byte(apiSecret),
		passphrase: []byte(passphrase),
	}
}

// Wipe clears the keys from memory.
func (s *Signer) Wipe() {
	if s == nil {
		return
	}
	wipeSlice(s.apiKey)
	wipeSlice(s.apiSecret)
	wipeSlice(s.passphrase)
}

func wipeSlice(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// GenerateHeaders creates the signed auth headers for one request.
// Signature payload: timestamp + method + path + body.
func (s *Signer) GenerateHeaders(method, path, body string) map[string]string {
	timestamp := fmt.Sprintf("%d", time.Now().UnixMilli())

	payload := timestamp + method + path + body
	signature := s.computeHmacSha256(payload)

	return map[string]string{
		"POLY-ACCESS-KEY":        string(s.apiKey),
		"POLY-ACCESS-SIGN":       signature,
		"POLY-ACCESS-TIMESTAMP":  timestamp,
		"POLY-ACCESS-PASSPHRASE": string(s.passphrase),
		"Content-Type":           "application/json",
	}
}

func (s *Signer) computeHmacSha256(payload string) string {
	mac := hmac.New(sha256.New, s.apiSecret)
	mac.Write([]byte(payload))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
