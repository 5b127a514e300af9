package artifact

import (
	"encoding/hex"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/zeebo/blake3"
)

// Fingerprint hashes a staged artifact. The hash runs over the canonical
// serialized bytes, so it is reproducible across runs on unchanged data.
func Fingerprint(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, errors.Wrapf(err, "opening %v", path)
	}
	defer f.Close()

	h := blake3.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, errors.Wrapf(err, "hashing %v", path)
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// FingerprintBytes hashes an in-memory artifact.
func FingerprintBytes(data []byte) string {
	h := blake3.New()
	_, _ = h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
