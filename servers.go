package kvclient

// Servers provides the list of server addresses.
// Implementations must be safe for concurrent use.
type Servers interface {
	List() []string
}

// StaticServers is a fixed list of server addresses.
type StaticServers struct {
	addrs []string
}

// NewStaticServers creates a Servers list that never changes.
func NewStaticServers(addrs ...string) *StaticServers {
	return &StaticServers{addrs: append([]string(nil), addrs...)}
}

func (s *StaticServers) List() []string {
	return s.addrs
}
