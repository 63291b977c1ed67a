package kernel

import "sync"

// list is one of the four list families described in spec.md §3/§4.2:
// RUNNABLE (one per CPU), SLEEPING, ZOMBIE, UNUSED (one global each). A
// process is a member of at most one list at a time, and membership must
// always match p.state (I1).
//
// Traversal is hand-over-hand: a walker always holds the lock that covers
// the pointer it is about to dereference (I4). headMu covers head itself;
// each Proc's linkMu covers that Proc's next field (I2/I3).
type list struct {
	headMu sync.Mutex
	head   *Proc
}

// add appends p to the tail of l. p must not already be linked into any
// list; this is the caller's responsibility, enforced by the state machine
// that drives list membership (callers only ever add on a state transition
// into the state that owns l).
func (l *list) add(p *Proc) {
	l.headMu.Lock()
	if l.head == nil {
		l.head = p
		l.headMu.Unlock()
		return
	}

	cur := l.head
	cur.linkMu.Lock()
	l.headMu.Unlock()

	for cur.next != nil {
		next := cur.next
		next.linkMu.Lock()
		cur.linkMu.Unlock()
		cur = next
	}
	cur.next = p
	cur.linkMu.Unlock()
}

// remove splices p out of l. It is a no-op (returns false) if p is not
// found on l. At every step of the walk exactly the lock(s) protecting the
// pointer about to be dereferenced are held — this is the fix for spec.md
// §9's "hand-over-hand imbalance" ambiguity: the original source released
// the head lock early when prev was nil and the head wasn't the target,
// opening a window where a concurrent add/remove could race on head.
func (l *list) remove(p *Proc) bool {
	l.headMu.Lock()
	if l.head == nil {
		l.headMu.Unlock()
		return false
	}
	if l.head == p {
		p.linkMu.Lock()
		l.head = p.next
		p.next = nil
		p.linkMu.Unlock()
		l.headMu.Unlock()
		return true
	}

	prev := l.head
	prev.linkMu.Lock()
	l.headMu.Unlock()

	for prev.next != nil {
		cur := prev.next
		cur.linkMu.Lock()
		if cur == p {
			prev.next = cur.next
			cur.next = nil
			cur.linkMu.Unlock()
			prev.linkMu.Unlock()
			return true
		}
		prev.linkMu.Unlock()
		prev = cur
	}
	prev.linkMu.Unlock()
	return false
}

// removeHead pops and returns the head of l, or nil if l is empty.
func (l *list) removeHead() *Proc {
	l.headMu.Lock()
	if l.head == nil {
		l.headMu.Unlock()
		return nil
	}
	p := l.head
	p.linkMu.Lock()
	l.head = p.next
	p.next = nil
	p.linkMu.Unlock()
	l.headMu.Unlock()
	return p
}

// removeMatching splices out every element satisfying pred and returns them
// in list order. Used by wakeup(chan) to pull every sleeper waiting on a
// given channel identity off the sleeping list in a single walk, the same
// hand-over-hand discipline as remove.
func (l *list) removeMatching(pred func(*Proc) bool) []*Proc {
	var matched []*Proc

	l.headMu.Lock()
	for l.head != nil && pred(l.head) {
		p := l.head
		p.linkMu.Lock()
		l.head = p.next
		p.next = nil
		p.linkMu.Unlock()
		matched = append(matched, p)
	}
	if l.head == nil {
		l.headMu.Unlock()
		return matched
	}

	prev := l.head
	prev.linkMu.Lock()
	l.headMu.Unlock()

	for prev.next != nil {
		cur := prev.next
		cur.linkMu.Lock()
		if pred(cur) {
			prev.next = cur.next
			cur.next = nil
			cur.linkMu.Unlock()
			matched = append(matched, cur)
			continue
		}
		prev.linkMu.Unlock()
		prev = cur
	}
	prev.linkMu.Unlock()
	return matched
}

// len walks the list under headMu/linkMu and returns its current length.
// Intended for quiescent-state property checks (P3), not the hot path —
// c.proc_list_size is the O(1) answer used at runtime.
func (l *list) len() int {
	l.headMu.Lock()
	defer l.headMu.Unlock()
	n := 0
	cur := l.head
	for cur != nil {
		n++
		cur.linkMu.Lock()
		next := cur.next
		cur.linkMu.Unlock()
		cur = next
	}
	return n
}
