// Package capture records committed uploads to a file for offline inspection.
//
// A capture file starts with a 24-byte header: the "GBCP" magic, a
// little-endian format version, the block compression and the capture
// session UUID. Each record follows as
//
//	[meta length u32][meta JSON][raw size u32][packed size u32][payload]
//
// where a packed size of 0 marks a payload stored raw. Payloads are the
// shared-memory bytes a commit pointed the engine at; the metadata carries
// the commit parameters and a CRC32C of the payload.
package capture
