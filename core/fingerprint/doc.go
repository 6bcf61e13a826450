// Package fingerprint computes the content hash used to detect quest text changes.
//
// A fingerprint is "v1:" followed by the lowercase hex SHA-256 of the ordered text
// fields joined with a fixed separator. Identical text always yields an identical
// fingerprint; the algorithm is frozen.
package fingerprint
