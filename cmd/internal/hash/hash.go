package hash

import (
	"github.com/google/uuid"
	"github.com/zeebo/xxh3"
	"strings"
)

// StableId returns a uuid derived from the supplied parts. The same parts always produce the same id, which
// gives exported resources an identity that survives repeated exports.
func StableId(parts ...string) string {
	h := xxh3.HashString128(strings.Join(parts, "/")).Bytes()
	guid, _ := uuid.FromBytes(h[:])
	return guid.String()
}

// ContentHash is used to detect files whose contents have not changed between exports.
func ContentHash(content []byte) uint64 {
	return xxh3.Hash(content)
}
