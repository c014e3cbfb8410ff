package gatts

// connection is one entry of the connection table.
type connection struct {
	peer       BDAddr
	connID     ConnID
	subscribed bool
	mtu        uint16 // 0 until an MTU exchange is observed
}

// connTable is the bounded registry of active links. It is not
// self-locking; callers hold the server lock.
type connTable struct {
	conns []connection
}

// add appends an entry for peer unless the table is full or already
// tracks that peer. The new entry starts unsubscribed with no
// negotiated MTU.
func (t *connTable) add(peer BDAddr, connID ConnID) bool {
	if len(t.conns) >= MaxConnections {
		return false
	}
	for i := range t.conns {
		if t.conns[i].peer == peer {
			return false
		}
	}
	t.conns = append(t.conns, connection{peer: peer, connID: connID})
	return true
}

// remove drops the entry for peer, if any. Entry order is not
// preserved.
func (t *connTable) remove(peer BDAddr) bool {
	for i := range t.conns {
		if t.conns[i].peer == peer {
			last := len(t.conns) - 1
			t.conns[i] = t.conns[last]
			t.conns = t.conns[:last]
			return true
		}
	}
	return false
}

// find returns the entry with the given connection ID, or nil.
func (t *connTable) find(connID ConnID) *connection {
	for i := range t.conns {
		if t.conns[i].connID == connID {
			return &t.conns[i]
		}
	}
	return nil
}

// setMTU records the negotiated MTU for a connection. An unknown ID is
// not an error; the event may refer to a link already gone.
func (t *connTable) setMTU(connID ConnID, mtu uint16) bool {
	c := t.find(connID)
	if c == nil {
		return false
	}
	c.mtu = mtu
	return true
}

func (t *connTable) len() int {
	return len(t.conns)
}

func (t *connTable) empty() bool {
	return len(t.conns) == 0
}
