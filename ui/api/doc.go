// Package api provides the JSON API for the uderia web front end.
//
// All responses use a common envelope:
//
//	{"data": ...}
//	{"error": {"code": "...", "message": "..."}}
//
// The API serves the current foreground view state for polling
// consumers, plus session listing and the switch/create/rename/delete
// session operations. It is mounted under /api/ by ui.Handler.
package api
