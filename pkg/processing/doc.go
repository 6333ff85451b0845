// Package processing hosts request-processing helpers that sit between
// the wire packages and the translation core.
//
// Its sub-packages:
//
//   - tokens: local input-token estimation for the count_tokens endpoint
//     and for streaming usage reporting
package processing
