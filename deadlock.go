package coro

// Deadlocked reports whether c is blocked on a Comutex whose ownership
// chain loops back to c, per spec.md §4.7: a bounded depth-first walk
// along "blocked on mutex M, M owned by coroutine X, X blocked on mutex
// N, N owned by..." edges. It terminates either by finding a cycle
// (true), reaching a coroutine that isn't blocked on any mutex (false),
// or revisiting a coroutine already seen without closing the loop back
// to c (false — a different cycle not involving c).
func Deadlocked(c *Coroutine) bool {
	if c == nil || c.blockingComutex == nil {
		return false
	}
	visited := map[*Coroutine]bool{c: true}
	next := c.blockingComutex.owner
	for next != nil {
		if next == c {
			return true
		}
		if visited[next] {
			return false
		}
		visited[next] = true
		if next.blockingComutex == nil {
			return false
		}
		next = next.blockingComutex.owner
	}
	return false
}
