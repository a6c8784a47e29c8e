// Package console is the admin console's network surface: a JSON HTTP API
// for the widget listing, registry writes and contained rendering, plus two
// websocket feeds: live registry snapshots and interactive editor sessions.
//
// Rendering failures are data, not transport errors: a failed widget renders
// as a 200 with the error and its fallback panel in the body, and editor
// command failures come back as transient notice payloads on the socket.
package console
