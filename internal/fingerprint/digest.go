package fingerprint

import (
	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// Digest returns the CIDv1 string (raw codec, sha2-256 multihash) of text.
func Digest(text string) string {
	sum, err := multihash.Sum([]byte(text), multihash.SHA2_256, -1)
	if err != nil {
		// Only reachable for an unknown hash code; keep the text usable as a key.
		return text
	}
	return cid.NewCidV1(cid.Raw, sum).String()
}
