// Package main (cmd/agent) runs the tag agent next to the NFC reader.
//
// Every touch is first offered to the registration rendezvous; when no window is
// open it is forwarded to the gateway's /mark route. With --source=auto the agent
// uses the first PC/SC reader and falls back to a console simulator that reads
// UIDs from standard input.
//
// Example usage:
//
//	attendance-agent --gateway-url=http://127.0.0.1:8080 \
//	    --rendezvous=file:///var/lib/attendance/rendezvous
package main
