// Package diff classifies the current quest catalog against the last snapshot.
//
// Every ID in either source gets exactly one entry:
//
//	current only          -> new
//	baseline only         -> removed
//	both, fingerprint !=  -> changed
//	both, fingerprint ==  -> unchanged
//
// Only new and changed quests count towards ToVoiceCount.
package diff
