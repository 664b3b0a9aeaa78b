package feed

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"

	"github.com/dwelly/negotiation-service/internal/utils"
)

const defaultBacklogSize = 256

// backlog is a bounded, ordered replay buffer for one recipient.
// trimmed flips once the buffer has ever dropped an event, which is
// what decides whether a resume cursor older than the buffer is a miss.
type backlog struct {
	events  []Event
	trimmed bool
	max     int
}

func (b *backlog) append(e Event) {
	b.events = append(b.events, e)
	if len(b.events) > b.max {
		b.events = b.events[1:]
		b.trimmed = true
	}
}

// after returns the buffered events strictly newer than cursor. The
// second result is false when the cursor predates the buffer and
// events may have been lost.
func (b *backlog) after(cursor string) ([]Event, bool) {
	if len(b.events) == 0 {
		return nil, !b.trimmed
	}
	if cursor < b.events[0].Cursor && b.trimmed {
		return nil, false
	}
	var out []Event
	for _, e := range b.events {
		if e.Cursor > cursor {
			out = append(out, e)
		}
	}
	return out, true
}

// Hub fans row-mutation events out to every connected session of the
// recipient. Sessions of other users never see the event.
type Hub struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]map[*Client]bool
	backlogs map[uuid.UUID]*backlog
	maxQueue int
}

func NewHub() *Hub {
	return &Hub{
		sessions: make(map[uuid.UUID]map[*Client]bool),
		backlogs: make(map[uuid.UUID]*backlog),
		maxQueue: defaultBacklogSize,
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.sessions[c.userID] == nil {
		h.sessions[c.userID] = make(map[*Client]bool)
	}
	h.sessions[c.userID][c] = true
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if m := h.sessions[c.userID]; m != nil {
		delete(m, c)
		if len(m) == 0 {
			delete(h.sessions, c.userID)
		}
	}
}

// Publish assigns a cursor, records the event for resume, and fans it
// out. A session that cannot keep up is closed rather than allowed to
// stall the publisher; it will reconnect and resume from its cursor.
func (h *Hub) Publish(e Event) {
	if e.Cursor == "" {
		e.Cursor = NewCursor()
	}

	h.mu.Lock()
	bl := h.backlogs[e.Recipient]
	if bl == nil {
		bl = &backlog{max: h.maxQueue}
		h.backlogs[e.Recipient] = bl
	}
	bl.append(e)
	conns := make([]*Client, 0, len(h.sessions[e.Recipient]))
	for c := range h.sessions[e.Recipient] {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	if len(conns) == 0 {
		return
	}
	b, err := json.Marshal(e)
	if err != nil {
		utils.Logger.WithError(err).Error("Failed to marshal feed event")
		return
	}
	for _, c := range conns {
		if !c.trySend(b) {
			go c.Close()
		}
	}
}

// replay returns the serialized events a resuming session missed. When
// the cursor is stale, or the miss count exceeds max (the session's
// send buffer, so the batch could never be delivered in full), the
// single returned frame is an OpReset event and the consumer re-fetches
// instead of trusting the resume. max <= 0 disables the cap.
func (h *Hub) replay(userID uuid.UUID, cursor string, max int) [][]byte {
	h.mu.RLock()
	bl := h.backlogs[userID]
	var events []Event
	ok := true
	if bl != nil {
		events, ok = bl.after(cursor)
	}
	h.mu.RUnlock()

	if ok && max > 0 && len(events) > max {
		ok = false
	}
	if !ok {
		b, _ := json.Marshal(Event{Cursor: NewCursor(), Op: OpReset})
		return [][]byte{b}
	}
	out := make([][]byte, 0, len(events))
	for _, e := range events {
		b, err := json.Marshal(e)
		if err != nil {
			continue
		}
		out = append(out, b)
	}
	return out
}
