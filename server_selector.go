package kvclient

import (
	"github.com/pior/kvclient/internal/shard"
)

// SelectServerFunc picks which server to use for a key.
// It receives the key and the current server list from Servers.List().
type SelectServerFunc func(key string, servers []string) (string, error)

// DefaultSelectServer uses Jump Hash over xxh3 for consistent server selection.
// Adding a server moves only the share of keys the new server takes.
// Returns ErrNoServers if the list is empty.
func DefaultSelectServer(key string, servers []string) (string, error) {
	switch len(servers) {
	case 0:
		return "", ErrNoServers
	case 1:
		return servers[0], nil
	}
	return servers[shard.Index(key, len(servers))], nil
}
