// Package audioindex tracks which quest and voice gender combinations already have audio.
//
// # Layout
//
//	<outputRoot>/audio/<languageCode>/{male,female}/<zone>/quest_<id>.<ext>
//
// Zone names are sanitized with SanitizeZone before use as a directory. The same
// layout below a prefix is used for mirrored object storage (BuildFromStorage).
//
// # Consistency
//
// The index is an eventually consistent cache over the filesystem. Files added or
// deleted outside the tool are not noticed until the next full build; the
// orchestrator patches it with Update after each generation.
package audioindex
