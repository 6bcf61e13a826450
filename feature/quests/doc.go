// Package quests holds the quest model and the sources producing the quest catalog.
//
// # Text order
//
// Two upstream tables disagree on which field carries the completion text and
// which the reward text. TextOrder makes the effective resolution explicit:
// TextOrderSwapped (the default, used by existing baselines) reads the reward
// text as completion and vice versa; TextOrderDirect uses the fields as stored.
// The fingerprint is computed over the effective tuple, so changing the order
// reclassifies every quest with differing completion and reward text as Changed.
//
// # Sources
//
//   - JSONFileSource: a quest export array (legacy quest_id and is_main_story keys accepted).
//   - DBSource: a database table read through gorm after verifying its columns.
package quests
