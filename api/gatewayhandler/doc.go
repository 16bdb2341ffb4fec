/*
Package gatewayhandler serves the attendance gateway over HTTP and provides
the matching client.

Handler maps each route onto a Service (implemented by gateway.Gateway) and
translates errors into status codes: a malformed tag or missing name is 400,
a reused tag on registration is 409, an unreachable ledger is 503 and any
other ledger failure is 502. Read routes (/view, /dashboard) never fail on
ledger errors; they answer with an empty result and an error message.

Mutating routes accept either a JSON body or an HTML form post, so the same
endpoints serve the browser UI and the tag agent.

Client is used by the tag agent to forward touches to /mark. Its StatusError
unwraps to the interfaces sentinel errors, so callers can use errors.Is on
the result of a remote call just as on a local one.
*/
package gatewayhandler
