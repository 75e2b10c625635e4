package thread

import (
	"defs"
	"intr"
)

/// ChildInfo is one row of a parent's children registry (component G):
/// grounded on the original's ChildInfo (tid, name, exit_code, the
/// is_waiting flag, and a semaphore used for the exit/wait handoff).
/// Child is nil once the child thread has exited; the row itself lives
/// on until a matching Wait harvests it.
type ChildInfo struct {
	Tid       defs.Tid_t
	Name      string
	ExitCode  *int
	IsWaiting bool
	WaitSema  *Semaphore
	Child     *Thread
}

/// newChild registers a freshly spawned thread as a child of parent,
/// per spec.md §4.7. Called by SpawnChild right after a user thread's Thread
/// object exists but before it is placed on the ready queue.
func newChild(parent, child *Thread) {
	if parent == nil {
		return
	}
	child.Parent = parent
	prev := intr.Set(false)
	parent.Children = append(parent.Children, &ChildInfo{
		Tid:      child.Tid,
		Name:     child.Name,
		WaitSema: NewSemaphore(0),
		Child:    child,
	})
	intr.Set(prev)
}

/// Exit records code as this thread's exit status in its parent's
/// registry (if it has a parent and a matching row still exists), wakes
/// any waiter, then marks the thread Dying and dispatches away from it
/// for good. Unlike a plain kernel thread's demise, a user process's
/// exit is synchronously observable by its parent's Wait via the
/// ChildInfo semaphore handoff (spec.md §4.7).
func (t *Thread) Exit(code int) {
	if t.Status == Dying {
		// run() calls Exit(0) unconditionally after entry() returns, as a
		// safety net for programs that forget to call it themselves; a
		// program that already called Exit explicitly must not hand off
		// its exit code twice (it would double-Up the parent's wait
		// semaphore).
		return
	}
	if p := t.Parent; p != nil {
		prev := intr.Set(false)
		for _, ci := range p.Children {
			if ci.Tid == t.Tid {
				c := code
				ci.ExitCode = &c
				ci.Child = nil
				if ci.IsWaiting {
					ci.WaitSema.Up()
				}
				break
			}
		}
		intr.Set(prev)
	}

	prev := intr.Set(false)
	t.Status = Dying
	forget(t.Tid)
	intr.Set(prev)
	Schedule()
}

/// Wait blocks until the child tid exits (or returns immediately if it
/// already has), then returns its exit code and forgets the row. A
/// second Wait for the same tid — or a tid that was never this thread's
/// child — returns (0, false). Each child is waitable exactly once.
func (t *Thread) Wait(tid defs.Tid_t) (int, bool) {
	prev := intr.Set(false)
	var found *ChildInfo
	for _, ci := range t.Children {
		if ci.Tid == tid {
			found = ci
			break
		}
	}
	if found == nil {
		intr.Set(prev)
		return 0, false
	}
	already := found.ExitCode != nil
	found.IsWaiting = true
	sema := found.WaitSema
	intr.Set(prev)

	// Exit only Ups sema when IsWaiting was already true at exit time, so
	// a child that exited before this call ever set it never gets a
	// matching Up; Down here would block forever on it.
	if !already {
		sema.Down()
	}

	prev = intr.Set(false)
	code := 0
	if found.ExitCode != nil {
		code = *found.ExitCode
	}
	for i, ci := range t.Children {
		if ci.Tid == tid {
			t.Children = append(t.Children[:i], t.Children[i+1:]...)
			break
		}
	}
	intr.Set(prev)
	return code, true
}
