package identity

import (
	"crypto/sha256"
	"encoding/base64"
)

// PrincipalID derives the opaque merchant identifier from a bearer token:
// base64 of the token's SHA-256 digest. The encoding is a wire contract
// shared with the marketplace services, so the same token always maps to
// the same id across restarts.
func PrincipalID(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.StdEncoding.EncodeToString(sum[:])
}
