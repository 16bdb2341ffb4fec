// Package main (cmd/gateway) runs the attendance gateway: the web API the admin
// browser and the tag agent talk to.
//
// The gateway binds the attendance contract over JSON-RPC, replays past student
// registrations into its name directory and serves the registration rendezvous,
// attendance marking, history and dashboard routes. The rendezvous store must be
// the same one the tag agent is started with.
//
// Transactions are signed with the admin key from --admin-privkey or the
// ADMIN_PRIVKEY environment variable. Without a key the gateway serves read-only
// routes and rejects registrations and marks.
//
// Example usage:
//
//	attendance-gateway --rpc-addr=http://127.0.0.1:8545 \
//	    --contract=0x5FbDB2315678afecb367f032d93F642f64180aa3 \
//	    --rendezvous=file:///var/lib/attendance/rendezvous \
//	    --listen-addr=0.0.0.0:8080
package main
