// Package tts provides the default voicesync.Generator: an ElevenLabs-style
// text-to-speech client that narrates a quest once per configured voice gender
// and writes the result into the canonical audio layout
// (<output_root>/audio/<lang>/<gender>/<zone>/quest_<id>.<ext>).
//
// Generated files can optionally be mirrored to object storage under the same
// relative key so that progress can be computed from the bucket.
package tts
