// Package ir holds the foundational types shared by every other package:
// identities, addresses, the constrained Value variant and its canonical
// encoding.
//
// ir imports nothing internal. Constraints:
//   - no float values; the normalizer tags floats explicitly
//   - canonical JSON (RFC 8785) is the only encoding that is hashed or journaled
//   - JSON field names use snake_case
package ir
