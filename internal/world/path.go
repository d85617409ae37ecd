package world

import "container/heap"

// BlockedFunc reports whether a tile cannot be entered. It must be
// side-effect free; FindPath may call it any number of times per position.
type BlockedFunc func(pos Offset) bool

// FindPath runs A* from start to goal over the map, with uniform step cost
// and hex distance to goal as the heuristic. It returns the shortest path
// including both endpoints, or nil when no path exists within budget steps.
//
// The goal tile is exempt from the blocked check: a move onto a tile being
// vacated in the same action is legal here, and the caller re-validates
// occupancy before committing. Out-of-bounds goals are never reachable.
// Repeated calls with identical inputs return identical paths; ties are
// broken by neighbor enumeration order via the heap insertion sequence.
func FindPath(m *Map, start, goal Offset, budget int, isBlocked BlockedFunc) []Offset {
	if start == goal {
		return []Offset{start}
	}
	if budget <= 0 || !m.InBounds(start) || !m.InBounds(goal) {
		return nil
	}

	startCube := start.ToCube()
	goalCube := goal.ToCube()
	if Distance(startCube, goalCube) > budget {
		return nil
	}

	pq := &nodeQueue{}
	heap.Init(pq)
	heap.Push(pq, &node{pos: startCube, priority: Distance(startCube, goalCube)})

	costSoFar := map[Cube]int{startCube: 0}

	for pq.Len() > 0 {
		current := heap.Pop(pq).(*node)
		if current.pos == goalCube {
			return reconstruct(current)
		}

		for _, next := range current.pos.Neighbors() {
			off := next.ToOffset()
			if !m.InBounds(off) {
				continue
			}
			if off != goal && isBlocked != nil && isBlocked(off) {
				continue
			}

			newCost := costSoFar[current.pos] + 1
			if newCost > budget {
				continue
			}
			if prev, seen := costSoFar[next]; seen && newCost >= prev {
				continue
			}
			costSoFar[next] = newCost
			pq.seq++
			heap.Push(pq, &node{
				pos:      next,
				cost:     newCost,
				priority: newCost + Distance(next, goalCube),
				seq:      pq.seq,
				parent:   current,
			})
		}
	}
	return nil
}

type node struct {
	pos      Cube
	cost     int   // Steps from start
	priority int   // cost + heuristic
	seq      uint64 // Insertion order, breaks priority ties deterministically
	parent   *node
}

type nodeQueue struct {
	nodes []*node
	seq   uint64
}

func (pq nodeQueue) Len() int { return len(pq.nodes) }

func (pq nodeQueue) Less(i, j int) bool {
	if pq.nodes[i].priority != pq.nodes[j].priority {
		return pq.nodes[i].priority < pq.nodes[j].priority
	}
	return pq.nodes[i].seq < pq.nodes[j].seq
}

func (pq nodeQueue) Swap(i, j int) { pq.nodes[i], pq.nodes[j] = pq.nodes[j], pq.nodes[i] }

func (pq *nodeQueue) Push(x any) { pq.nodes = append(pq.nodes, x.(*node)) }

func (pq *nodeQueue) Pop() any {
	old := pq.nodes
	n := len(old)
	item := old[n-1]
	pq.nodes = old[:n-1]
	return item
}

func reconstruct(n *node) []Offset {
	length := 0
	for at := n; at != nil; at = at.parent {
		length++
	}
	path := make([]Offset, length)
	for at := n; at != nil; at = at.parent {
		length--
		path[length] = at.pos.ToOffset()
	}
	return path
}
