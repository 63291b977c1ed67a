package kernel

import "testing"

func newTestProcs(n int) []*Proc {
	ps := make([]*Proc, n)
	for i := range ps {
		ps[i] = &Proc{pid: i + 1}
	}
	return ps
}

func TestListAddRemoveHeadFIFO(t *testing.T) {
	var l list
	ps := newTestProcs(3)
	for _, p := range ps {
		l.add(p)
	}
	if got := l.len(); got != 3 {
		t.Fatalf("len() = %d, want 3", got)
	}
	for i, want := range ps {
		got := l.removeHead()
		if got != want {
			t.Fatalf("removeHead() #%d = pid %d, want pid %d", i, got.pid, want.pid)
		}
	}
	if got := l.removeHead(); got != nil {
		t.Fatalf("removeHead() on empty list = pid %d, want nil", got.pid)
	}
}

func TestListRemoveMiddleAndEnds(t *testing.T) {
	var l list
	ps := newTestProcs(4)
	for _, p := range ps {
		l.add(p)
	}

	if !l.remove(ps[2]) {
		t.Fatal("remove(ps[2]) = false, want true")
	}
	if l.len() != 3 {
		t.Fatalf("len() after removing middle = %d, want 3", l.len())
	}
	if l.remove(ps[2]) {
		t.Fatal("remove(ps[2]) a second time = true, want false (already gone)")
	}

	if !l.remove(ps[0]) {
		t.Fatal("remove(ps[0]) (head) = false, want true")
	}
	if !l.remove(ps[3]) {
		t.Fatal("remove(ps[3]) (tail) = false, want true")
	}
	if l.len() != 1 {
		t.Fatalf("len() after removing head+tail = %d, want 1", l.len())
	}
	if l.removeHead() != ps[1] {
		t.Fatal("surviving element should be ps[1]")
	}
}

func TestListRemoveMatching(t *testing.T) {
	var l list
	ps := newTestProcs(5)
	for i, p := range ps {
		p.ch = i % 2 // tag even-indexed procs with chanKey 0, odd with 1
		l.add(p)
	}

	matched := l.removeMatching(func(p *Proc) bool { return p.ch == 1 })
	if len(matched) != 2 {
		t.Fatalf("removeMatching returned %d procs, want 2", len(matched))
	}
	for _, p := range matched {
		if p.ch != 1 {
			t.Fatalf("removeMatching returned a non-matching proc pid=%d", p.pid)
		}
	}
	if l.len() != 3 {
		t.Fatalf("len() after removeMatching = %d, want 3", l.len())
	}

	rest := l.removeMatching(func(p *Proc) bool { return true })
	if len(rest) != 3 || l.len() != 0 {
		t.Fatalf("removeMatching(always-true) left %d behind, got %d matched", l.len(), len(rest))
	}
}

func TestListRemoveMatchingNonePrefixed(t *testing.T) {
	var l list
	ps := newTestProcs(3)
	for _, p := range ps {
		l.add(p)
	}

	matched := l.removeMatching(func(p *Proc) bool { return p.pid == ps[2].pid })
	if len(matched) != 1 || matched[0] != ps[2] {
		t.Fatalf("removeMatching should find only the tail element, got %v", matched)
	}
	if l.len() != 2 {
		t.Fatalf("len() = %d, want 2", l.len())
	}
}
