package rendezvous

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/ruteri/nfc-attendance/interfaces"
)

// NewStoreFromURI creates a rendezvous store from a location URI.
//
// Supported schemes:
//   - file:///absolute/dir or file://./relative/dir - marker files guarded by a lock file
//   - redis://[user:pass@]host:port[/db][?prefix=name] - keys on a Redis server (also rediss://)
//   - memory:// - in-process store, only shared within one process
//
// Returns an error wrapping interfaces.ErrInvalidStoreURI if the URI is invalid
// or the scheme is unsupported.
func NewStoreFromURI(locationURI string, log *slog.Logger) (interfaces.RendezvousStore, error) {
	u, err := url.Parse(locationURI)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrInvalidStoreURI, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "file":
		return createFileStore(u, log)
	case "redis", "rediss":
		return createRedisStore(u, log)
	case "memory":
		log.Debug("Creating in-memory rendezvous store")
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q", interfaces.ErrInvalidStoreURI, u.Scheme)
	}
}

// createFileStore creates a file rendezvous store.
// URI format: file:///absolute/path or file://./relative/path
func createFileStore(u *url.URL, log *slog.Logger) (interfaces.RendezvousStore, error) {
	log.Debug("Creating file rendezvous store", slog.String("uri", u.String()))

	path := u.Path
	if u.Host != "" {
		path = u.Host + "/" + strings.TrimPrefix(path, "/")
	}

	if path == "" {
		return nil, fmt.Errorf("%w: empty path in file URI: %s", interfaces.ErrInvalidStoreURI, u.String())
	}

	return NewFileStore(path, log)
}

// createRedisStore creates a Redis rendezvous store.
// URI format: redis://[user:pass@]host:port[/db][?prefix=name]
func createRedisStore(u *url.URL, log *slog.Logger) (interfaces.RendezvousStore, error) {
	log.Debug("Creating redis rendezvous store", slog.String("host", u.Host))

	// go-redis rejects options it does not know, so prefix is taken out first.
	query := u.Query()
	prefix := query.Get("prefix")
	query.Del("prefix")

	stripped := *u
	stripped.RawQuery = query.Encode()

	opts, err := redis.ParseURL(stripped.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrInvalidStoreURI, err)
	}

	return NewRedisStore(opts, prefix, log), nil
}
