package util

import (
	"strings"

	"martpub/consts"
)

// ArtifactKey derives the object store key for a table's artifact. Keys are
// name-derived, not content-addressed: overwriting a stale artifact is safe
// because only the manifest defines which bytes are current.
func ArtifactKey(table string) string {
	return table + consts.ArtifactSuffix
}

// TableOfKey is the inverse of ArtifactKey, tolerating a path prefix.
func TableOfKey(key string) string {
	if i := strings.LastIndexByte(key, '/'); i != -1 {
		key = key[i+1:]
	}
	return strings.TrimSuffix(key, consts.ArtifactSuffix)
}

// HasAnyPrefix reports whether name carries one of the mart prefixes.
func HasAnyPrefix(name string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// ShortFP truncates a fingerprint for log lines. Fingerprints are not
// length-validated on decode, so short values must pass through unharmed.
func ShortFP(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
