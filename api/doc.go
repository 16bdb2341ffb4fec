/*
Package api holds the HTTP surface of the attendance gateway.

The subpackages split the surface the usual way:

 1. gatewayhandler - request handling for the gateway routes and the HTTP
    client the tag agent uses to forward attendance
 2. servers - HTTP server lifecycle, probes, pprof and the metrics listener

This package itself only carries the server configuration and the request
and response types shared by handlers and clients.

# Routes

	POST /mark                          record attendance for a tag
	POST /register                      register a student for a tag
	GET  /view/{tag_id}                 attendance history of a tag
	GET  /dashboard                     registered students
	GET  /api/attendance/recent?since=  confirmed marks newer than since
	POST /request_registration_scan     divert the next touch to registration
	GET  /get_scanned_uid               claim the captured tag, if any
	GET  /api/health                    ledger connectivity
*/
package api
