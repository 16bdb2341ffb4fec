/*
Package rendezvous implements the registration rendezvous store shared by the
attendance gateway and the tag agent.

The store has two markers. The mode marker is present while a registration scan
is pending; the captured marker is present while a captured tag has not yet been
consumed by the gateway. Presence, not content, carries the state:

	OpenWindow      mode := present, captured := absent
	TryCapture(t)   if mode present: captured := t, mode := absent, report true
	ConsumeCapture  return captured, captured := absent

# Backends

  - FileStore (file:///dir) keeps the markers as files in a shared directory and
    serializes every operation with an advisory lock file, so a gateway and an
    agent running as separate processes on one host never interleave a
    read-modify-write.
  - RedisStore (redis://host:port/db) keeps the markers as keys and runs each
    operation atomically on the server, for agents on a different host.
  - MemoryStore (memory://) is a mutex-guarded value for a gateway that runs
    the agent in-process, and for tests.

Use NewStoreFromURI to build a store from configuration.
*/
package rendezvous
