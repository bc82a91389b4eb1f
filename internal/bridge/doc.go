// Package bridge serves the claimsense handlers to a browser front end over
// a websocket.
//
// The Hub is the app.View: whatever a handler shows is broadcast to every
// connected client as a JSON event (navigation, result, settings,
// notification). Clients send JSON commands back:
//
//	{"type":"navigate","section":"reports"}
//	{"type":"analyze","text":"Aspirin cures headaches"}
//	{"type":"export"}
//	{"type":"save_settings","username":"Ana","dark_mode":true}
//	{"type":"load_settings"}
//
// Malformed or unknown commands get an error notification sent to the
// sender only.
//
// HTTP routes:
//
//	GET /ws          upgrade to the websocket bridge
//	GET /report.pdf  PDF of the last result, 404 when there is none
//	GET /healthz     "ok <version>"
//
// Each connection runs a read pump and a write pump; the write pump is the
// only writer on the socket. Analysis and export run in their own
// goroutines so a slow prediction service does not block the connection.
// Shutdown closes every client and waits for all of them.
package bridge
