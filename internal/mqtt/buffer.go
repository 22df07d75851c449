package mqtt

// queuedMsg is a serialized message waiting for the broker.
type queuedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// outbox holds messages while the broker is unreachable. Once full the
// oldest message is dropped. A retained message replaces an older queued
// retained message on the same topic: the broker would only keep the last.
// Not safe for concurrent use.
type outbox struct {
	msgs     []queuedMsg
	capacity int
	dropped  int // since the last drain
}

func newOutbox(capacity int) *outbox {
	if capacity < 1 {
		capacity = 1
	}
	return &outbox{capacity: capacity}
}

// push queues msg. It returns true on the first drop since the last drain
// so the caller can log it once.
func (o *outbox) push(msg queuedMsg) bool {
	if msg.retained {
		for i, old := range o.msgs {
			if old.retained && old.topic == msg.topic {
				o.msgs = append(o.msgs[:i], o.msgs[i+1:]...)
				break
			}
		}
	}

	first := false
	if len(o.msgs) == o.capacity {
		first = o.dropped == 0
		o.dropped++
		o.msgs = append(o.msgs[:0], o.msgs[1:]...)
	}
	o.msgs = append(o.msgs, msg)
	return first
}

// drain returns the queued messages oldest first and how many were dropped
// since the previous drain, then empties the outbox.
func (o *outbox) drain() ([]queuedMsg, int) {
	if len(o.msgs) == 0 {
		dropped := o.dropped
		o.dropped = 0
		return nil, dropped
	}
	msgs := make([]queuedMsg, len(o.msgs))
	copy(msgs, o.msgs)
	dropped := o.dropped
	o.msgs = o.msgs[:0]
	o.dropped = 0
	return msgs, dropped
}

func (o *outbox) len() int {
	return len(o.msgs)
}
