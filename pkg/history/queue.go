package history

type queuedCommit struct {
	commit *Commit
	seq    int // discovery order
}

// chronoHeap is a max-heap on committer time; equal times pop in discovery
// order.
type chronoHeap []queuedCommit

func (h chronoHeap) Len() int { return len(h) }

func (h chronoHeap) Less(i, j int) bool {
	ti, tj := h[i].commit.Time, h[j].commit.Time
	if ti.Equal(tj) {
		return h[i].seq < h[j].seq
	}
	return ti.After(tj)
}

func (h chronoHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
}

func (h *chronoHeap) Push(x any) {
	*h = append(*h, x.(queuedCommit))
}

func (h *chronoHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
