package cache

import "time"

// entry is a node in the recency list. The head is the most recently used.
type entry struct {
	key     string
	data    []byte
	expires time.Time

	prev, next *entry
}

func (e *entry) expired(now time.Time) bool {
	return !e.expires.IsZero() && now.After(e.expires)
}

// lruList is a doubly-linked recency list. Callers synchronize.
type lruList struct {
	head, tail *entry
	len        int
}

func (l *lruList) pushFront(e *entry) {
	e.prev, e.next = nil, l.head
	if l.head != nil {
		l.head.prev = e
	}
	l.head = e
	if l.tail == nil {
		l.tail = e
	}
	l.len++
}

func (l *lruList) moveToFront(e *entry) {
	if e == l.head {
		return
	}
	l.remove(e)
	l.pushFront(e)
}

func (l *lruList) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		l.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		l.tail = e.prev
	}
	e.prev, e.next = nil, nil
	l.len--
}

// oldest returns the least recently used entry, or nil.
func (l *lruList) oldest() *entry { return l.tail }
