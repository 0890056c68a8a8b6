// Package greetd speaks the greetd IPC protocol.
//
// greetd listens on a unix socket whose path is published in $GREETD_SOCK.
// Every message in either direction is a 4-byte length in native byte order
// followed by that many bytes of JSON:
//
//	{"type":"create_session","username":"alice"}
//	{"type":"auth_message","auth_message_type":"secret","auth_message":"Password: "}
//	{"type":"post_auth_message_response","response":"..."}
//	{"type":"success"}
//	{"type":"start_session","cmd":["Hyprland"],"env":["XDG_SESSION_TYPE=wayland"]}
//
// Client is the socket transport. Demo is an in-process stand-in used by
// --dryrun that accepts the password "demo".
//
// Responses carrying a credential are encoded into a private byte slice that
// is overwritten as soon as it has been written to the socket, so the secret
// never exists as an immutable string.
package greetd
