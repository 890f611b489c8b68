package keylock

// Slots reports how many keys currently hold or wait on a lock.
func Slots(l *Locker) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}
