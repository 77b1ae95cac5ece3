// Package core holds the widget controller: the single owner of the loaded
// dataset and the state machine around it.
//
// # Lifecycle
//
//	Empty --Load--> Loaded --Apply--> Processing --done--> Loaded
//	Loaded --Clear--> Empty
//
// Load from Loaded replaces the dataset. Apply, Export and Clear are only
// valid from Loaded; while Processing they fail with [ErrBusy]. Operations
// are all-or-nothing: a failed run leaves the dataset exactly as it was.
//
// # Notifications
//
// Every user action leaves a [Notification] (success, info or error) that
// expires after a TTL. A newer notification replaces the current one.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each category has a code for support reference:
//
//   - FILE001-FILE005: File errors (size, format, empty)
//   - EXP001-EXP002: Export errors
//   - OP001-OP004: Operation errors (busy, engine, unknown, script)
//   - STATE001: Action not valid in the current state
//   - REQ001-REQ003: Cancelled, timed out or malformed requests
package core
