// Copyright 2026 The LogAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

package buildlog

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// fingerprintKey is the BLAKE3 keying for log fingerprints. Domain
// separation keeps these digests distinct from any other keyed use of
// the same input bytes. The key is the ASCII domain name zero-padded
// to 32 bytes, which keeps it readable in hex dumps without giving up
// any property of keyed hashing.
var fingerprintKey = [32]byte{
	'l', 'o', 'g', 'a', 'n', 'a', 'l', 'y', 's', 'e', 'r', '.',
	'b', 'u', 'i', 'l', 'd', 'l', 'o', 'g', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// Fingerprint returns a short stable identifier for a raw log: the
// hex encoding of the first 16 bytes of its keyed BLAKE3 digest.
// Services log it instead of the payload to correlate request
// handling, and the synthetic generator uses it to detect duplicate
// samples.
func Fingerprint(rawLog string) string {
	hasher, err := blake3.NewKeyed(fingerprintKey[:])
	if err != nil {
		panic("buildlog: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write([]byte(rawLog))

	var digest [32]byte
	hasher.Sum(digest[:0])
	return hex.EncodeToString(digest[:16])
}
