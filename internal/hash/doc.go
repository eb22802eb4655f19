// Package hash provides the CRC32-Castagnoli checksum used to shorten
// shared-memory keys and to guard capture records.
//
//	sum := hash.CRC32C([]byte(identifier))
//
// The table is computed once; Go's crc32 package uses hardware instructions
// (SSE4.2, ARM CRC) when available.
package hash
