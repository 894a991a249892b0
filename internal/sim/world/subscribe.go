package world

import "galax.network/internal/protocol"

// BlockNotice is published to subscribers after every block.
type BlockNotice struct {
	Height   uint64
	Digest   string
	Events   []Event
	Wire     []protocol.Event
	Receipts []Receipt
}

func (n BlockNotice) Msg(worldID string) protocol.BlockMsg {
	ev := n.Wire
	if ev == nil {
		ev = []protocol.Event{}
	}
	return protocol.BlockMsg{
		Type:            protocol.TypeBlock,
		ProtocolVersion: protocol.Version,
		WorldID:         worldID,
		Height:          n.Height,
		Digest:          n.Digest,
		TxCount:         len(n.Receipts),
		Events:          ev,
	}
}

// Subscribe registers for block notices. Slow subscribers lose the oldest
// pending notice rather than stalling the world loop. Call cancel to stop.
func (w *World) Subscribe(buffer int) (<-chan BlockNotice, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan BlockNotice, buffer)
	w.subsMu.Lock()
	w.nextSub++
	id := w.nextSub
	w.subs[id] = ch
	w.subsMu.Unlock()

	cancel := func() {
		w.subsMu.Lock()
		if c, ok := w.subs[id]; ok {
			delete(w.subs, id)
			close(c)
		}
		w.subsMu.Unlock()
	}
	return ch, cancel
}

func (w *World) notify(n BlockNotice) {
	w.subsMu.Lock()
	defer w.subsMu.Unlock()
	for _, ch := range w.subs {
		sendLatest(ch, n)
	}
}

func sendLatest(ch chan BlockNotice, n BlockNotice) {
	select {
	case ch <- n:
		return
	default:
	}
	// Drop one.
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- n:
	default:
	}
}
