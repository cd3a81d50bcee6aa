package registry

// Conn is anything the registry can track. Membership is by identity, so
// implementations must be comparable (pointer types in practice).
type Conn interface {
	comparable
	ID() string
}

// Registry tracks the single host connection and the set of client
// connections. Host and clients never overlap. It is not safe for concurrent
// use; the relay loop is its only writer.
type Registry[C Conn] struct {
	host    C
	hasHost bool
	clients map[C]struct{}
}

// New creates an empty registry
func New[C Conn]() *Registry[C] {
	return &Registry[C]{clients: make(map[C]struct{})}
}

// IdentifyAsHost makes conn the host, silently replacing any previous host
func (r *Registry[C]) IdentifyAsHost(conn C) {
	delete(r.clients, conn)
	r.host = conn
	r.hasHost = true
}

// IdentifyAsClient adds conn to the client set
func (r *Registry[C]) IdentifyAsClient(conn C) {
	if r.IsHost(conn) {
		r.clearHost()
	}
	r.clients[conn] = struct{}{}
}

// RemoveIfHost clears the host reference when conn is the current host
func (r *Registry[C]) RemoveIfHost(conn C) bool {
	if !r.IsHost(conn) {
		return false
	}
	r.clearHost()
	return true
}

// RemoveClient drops conn from the client set, reporting whether it was present
func (r *Registry[C]) RemoveClient(conn C) bool {
	if _, ok := r.clients[conn]; !ok {
		return false
	}
	delete(r.clients, conn)
	return true
}

// Disconnect handles a closed connection: the host reference is cleared if
// conn was the host, otherwise conn leaves the client set. No replacement
// host is chosen.
func (r *Registry[C]) Disconnect(conn C) Role {
	if r.RemoveIfHost(conn) {
		return RoleHost
	}
	if r.RemoveClient(conn) {
		return RoleClient
	}
	return RoleNone
}

// IsHost reports whether conn is the current host
func (r *Registry[C]) IsHost(conn C) bool {
	return r.hasHost && r.host == conn
}

// HasHost reports whether a host is registered
func (r *Registry[C]) HasHost() bool {
	return r.hasHost
}

// Host returns the current host, if any
func (r *Registry[C]) Host() (C, bool) {
	return r.host, r.hasHost
}

// IsClient reports whether conn is in the client set
func (r *Registry[C]) IsClient(conn C) bool {
	_, ok := r.clients[conn]
	return ok
}

// Clients returns a snapshot of the client set in no particular order
func (r *Registry[C]) Clients() []C {
	out := make([]C, 0, len(r.clients))
	for c := range r.clients {
		out = append(out, c)
	}
	return out
}

// ClientCount returns the number of registered clients
func (r *Registry[C]) ClientCount() int {
	return len(r.clients)
}

func (r *Registry[C]) clearHost() {
	var zero C
	r.host = zero
	r.hasHost = false
}

// Role is the registry role a connection held
type Role string

const (
	RoleNone   Role = "none"
	RoleHost   Role = "host"
	RoleClient Role = "client"
)
