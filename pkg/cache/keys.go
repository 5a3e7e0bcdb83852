package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Key kinds.
const (
	KindHTTP = "http"
	KindRisk = "risk"
)

// Keyer builds cache keys.
type Keyer interface {
	// HTTPKey keys a raw API response.
	HTTPKey(namespace, key string) string

	// RiskKey keys an enrichment report for one package URL.
	RiskKey(source, purl string) string
}

// DefaultKeyer produces unscoped keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// HTTPKey returns "http:<namespace>:<key>".
func (DefaultKeyer) HTTPKey(namespace, key string) string {
	return KindHTTP + ":" + namespace + ":" + key
}

// RiskKey returns "risk:<source>:<sha256 of purl>". Sources compare
// case-insensitively.
func (DefaultKeyer) RiskKey(source, purl string) string {
	return KindRisk + ":" + strings.ToLower(source) + ":" + Hash([]byte(purl))
}

// Kind returns the kind prefix of key, or "other" when it has none.
func Kind(key string) string {
	if k, _, ok := strings.Cut(key, ":"); ok && k != "" && !strings.ContainsAny(k, `/\.`) {
		return k
	}
	return "other"
}

// Hash returns the hex SHA-256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
