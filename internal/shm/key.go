package shm

import (
	"fmt"
	"os"

	"github.com/hupe1980/geobridge/internal/hash"
)

// maxIdentifierLen is the longest identifier embedded verbatim in a key.
const maxIdentifierLen = 16

// ProcessScope returns the scope prefix of the calling process, e.g. "_4242_".
func ProcessScope() string {
	return fmt.Sprintf("_%d_", os.Getpid())
}

// Key derives the segment name for identifier at the given size.
//
// Identifiers longer than 16 bytes are replaced by their CRC32C so that keys
// stay short enough for every platform namespace.
func Key(scope, identifier string, sizeWords int) string {
	if len(identifier) > maxIdentifierLen {
		return fmt.Sprintf("%s%08X_%d", scope, hash.CRC32C([]byte(identifier)), sizeWords)
	}
	return fmt.Sprintf("%s%s_%d", scope, identifier, sizeWords)
}
