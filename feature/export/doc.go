// Package export provides the default voicesync.Exporter. It packages the voiced
// quests of the local audio index as a game add-on:
//
//	<dir>/<name>/<name>.toc
//	<dir>/<name>/QuestVoiceData.lua
//	<dir>/<name>/audio/<lang>/<gender>/<zone>/quest_<id>.<ext>   (when audio copy is enabled)
//
// The package can additionally be uploaded to object storage under
// <upload_prefix>/<name>/.
package export
