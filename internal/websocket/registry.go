package websocket

import "sync"

// Registry is the process-wide bookkeeping of connection-to-user and
// room-to-connection relationships. All mutation goes through its methods;
// the maps are never exposed. Readers get copies, so no caller ever performs
// I/O while the lock is held.
type Registry struct {
	mu         sync.RWMutex
	connToUser map[string]string
	userConns  map[string]map[string]struct{}
	roomConns  map[string]map[string]struct{}
	connRooms  map[string]map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		connToUser: make(map[string]string),
		userConns:  make(map[string]map[string]struct{}),
		roomConns:  make(map[string]map[string]struct{}),
		connRooms:  make(map[string]map[string]struct{}),
	}
}

// RegisterUser associates connID with userID. Re-registering the same pair
// is a no-op; registering a connection that belonged to another user moves
// it, dropping the stale mapping.
func (r *Registry) RegisterUser(connID, userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.connToUser[connID]; ok {
		if prev == userID {
			return
		}
		r.removeFromUserLocked(prev, connID)
	}

	r.connToUser[connID] = userID
	if r.userConns[userID] == nil {
		r.userConns[userID] = make(map[string]struct{})
	}
	r.userConns[userID][connID] = struct{}{}
}

// Unregister purges connID from its owning user's set and from every room it
// joined, dropping entries that become empty. Safe to call for connections
// that were never registered.
func (r *Registry) Unregister(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if userID, ok := r.connToUser[connID]; ok {
		delete(r.connToUser, connID)
		r.removeFromUserLocked(userID, connID)
	}

	for roomID := range r.connRooms[connID] {
		r.removeFromRoomLocked(roomID, connID)
	}
	delete(r.connRooms, connID)
}

// AddToRoom adds connID to roomID's membership. Joining twice leaves the
// membership unchanged.
func (r *Registry) AddToRoom(connID, roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.roomConns[roomID] == nil {
		r.roomConns[roomID] = make(map[string]struct{})
	}
	r.roomConns[roomID][connID] = struct{}{}

	if r.connRooms[connID] == nil {
		r.connRooms[connID] = make(map[string]struct{})
	}
	r.connRooms[connID][roomID] = struct{}{}
}

// RemoveFromRoom removes connID from roomID, dropping the room once empty.
func (r *Registry) RemoveFromRoom(connID, roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.removeFromRoomLocked(roomID, connID)
	if rooms, ok := r.connRooms[connID]; ok {
		delete(rooms, roomID)
		if len(rooms) == 0 {
			delete(r.connRooms, connID)
		}
	}
}

// ConnectionsForUser returns a snapshot of userID's live connections.
// Unknown users yield an empty slice.
func (r *Registry) ConnectionsForUser(userID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return keysOf(r.userConns[userID])
}

// ConnectionsForRoom returns a snapshot of roomID's membership.
func (r *Registry) ConnectionsForRoom(roomID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return keysOf(r.roomConns[roomID])
}

// UserFor returns the user identity registered for connID, if any.
func (r *Registry) UserFor(connID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	userID, ok := r.connToUser[connID]
	return userID, ok
}

func (r *Registry) removeFromUserLocked(userID, connID string) {
	if conns, ok := r.userConns[userID]; ok {
		delete(conns, connID)
		if len(conns) == 0 {
			delete(r.userConns, userID)
		}
	}
}

func (r *Registry) removeFromRoomLocked(roomID, connID string) {
	if conns, ok := r.roomConns[roomID]; ok {
		delete(conns, connID)
		if len(conns) == 0 {
			delete(r.roomConns, roomID)
		}
	}
}

func keysOf(set map[string]struct{}) []string {
	result := make([]string, 0, len(set))
	for k := range set {
		result = append(result, k)
	}
	return result
}
