package prim

// waiter is one parked acquirer. Its channel is closed exactly once,
// when the waiter is granted whatever it was parked for.
type waiter struct {
	ch chan struct{}
}

// waitList is a FIFO queue of parked waiters. Callers synchronize
// access with the owning primitive's mutex.
type waitList struct {
	ws []*waiter
}

func (l *waitList) push() *waiter {
	w := &waiter{ch: make(chan struct{})}
	l.ws = append(l.ws, w)
	return w
}

func (l *waitList) pop() *waiter {
	if len(l.ws) == 0 {
		return nil
	}
	w := l.ws[0]
	l.ws[0] = nil
	l.ws = l.ws[1:]
	return w
}

// remove unlinks w if it is still queued. It returns false when w was
// already granted, in which case the caller holds whatever was handed
// over and must dispose of it.
func (l *waitList) remove(w *waiter) bool {
	for i, x := range l.ws {
		if x == w {
			l.ws = append(l.ws[:i], l.ws[i+1:]...)
			return true
		}
	}
	return false
}

func (l *waitList) len() int { return len(l.ws) }
