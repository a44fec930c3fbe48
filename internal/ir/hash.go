package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Fingerprint domains. The version suffix leaves room for algorithm changes.
const (
	DomainConstant   = "mirror/constant/v1"
	DomainDescriptor = "mirror/descriptor/v1"
)

// hashWithDomain computes SHA256(domain || 0x00 || data). The separator
// keeps domain and payload boundaries unambiguous.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint returns the domain-separated digest of v's canonical encoding.
func Fingerprint(domain string, v any) (string, error) {
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("fingerprint %s: %w", domain, err)
	}
	return hashWithDomain(domain, canonical), nil
}

// FingerprintBytes digests already-canonical bytes.
func FingerprintBytes(domain string, canonical []byte) string {
	return hashWithDomain(domain, canonical)
}
