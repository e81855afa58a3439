package session

import "sync"

// closedWake is returned by wait once the lane is closed so that consumers
// never block on a lane that will produce nothing further.
var closedWake = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// userLane is the lossy broadcast-style queue feeding user messages to the
// worker. Producers never block: when the ring is full the oldest entry is
// overwritten, and the consumer observes the gap as a lag count on its next
// receive. Sequence numbers are monotonic; the consumer keeps its own cursor.
type userLane struct {
	mu     sync.Mutex
	buf    []speakRequest
	head   uint64 // sequence of the oldest retained entry
	next   uint64 // sequence of the next publish
	closed bool
	wake   chan struct{}
}

func newUserLane(capacity int) *userLane {
	return &userLane{
		buf:  make([]speakRequest, capacity),
		wake: make(chan struct{}),
	}
}

// publish appends req, overwriting the oldest entry when full. Publishing to
// a closed lane is a no-op.
func (l *userLane) publish(req speakRequest) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	if l.next-l.head == uint64(len(l.buf)) {
		l.head++
	}
	l.buf[l.next%uint64(len(l.buf))] = req
	l.next++
	close(l.wake)
	l.wake = make(chan struct{})
}

// close marks the lane as producing nothing further and wakes the consumer.
func (l *userLane) close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	close(l.wake)
}

// tryRecv advances cursor past any overwritten entries and pops the next
// available request. skipped reports how many entries were lost to overwrite
// since the previous receive. done reports that the lane is closed and fully
// drained.
func (l *userLane) tryRecv(cursor *uint64) (req speakRequest, skipped uint64, ok bool, done bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if *cursor < l.head {
		skipped = l.head - *cursor
		*cursor = l.head
	}
	if *cursor < l.next {
		i := *cursor % uint64(len(l.buf))
		req = l.buf[i]
		l.buf[i] = speakRequest{}
		*cursor++
		ok = true
		return
	}
	done = l.closed
	return
}

// state reports how many entries remain past cursor and whether the lane is
// closed, without consuming anything.
func (l *userLane) state(cursor uint64) (pending uint64, closed bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if cursor < l.head {
		cursor = l.head
	}
	return l.next - cursor, l.closed
}

// wait returns a channel that is closed on the next publish or on close.
// Consumers must re-check tryRecv after arming wait to avoid a lost wakeup.
func (l *userLane) wait() <-chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return closedWake
	}
	return l.wake
}
