// Package chat layers persistent multi-turn conversations on top of the
// answering engine. Sessions are stored per chat id and scoped to a single
// project.
package chat
