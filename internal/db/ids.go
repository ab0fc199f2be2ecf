package db

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// genID produces a short random id with the given prefix, in the teacher's
// auth-token idiom (crypto/rand bytes, hex-encoded) rather than pulling in a
// UUID library the teacher never used.
func genID(prefix string) string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return fmt.Sprintf("%s-%s", prefix, hex.EncodeToString(b))
}
