// Package sha256 is a thin shim over github.com/minio/sha256-simd, which uses,
// where available, an accelerated SIMD implementation of sha256.
package sha256

import (
	sha256 "github.com/minio/sha256-simd"
)

const Size = sha256.Size

var New = sha256.New

// Sum256 returns the SHA256 checksum of the data.
func Sum256(data []byte) [Size]byte { return sha256.Sum256(data) }
