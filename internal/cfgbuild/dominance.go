package cfgbuild

import "mpcc/internal/diag"

// Dominance holds the dominator tree and dominance frontiers for a CFG,
// computed with the iterative algorithm from Cooper, Harvey & Kennedy, "A
// Simple, Fast Dominance Algorithm" (2001): reverse-postorder numbering plus
// a fixpoint intersection walk, rather than the classical Lengauer-Tarjan
// algorithm — simpler to implement correctly and fast enough for the block
// counts this compiler ever produces. internal/ssa uses it for Φ placement
// and renaming; internal/muxlower uses it to find a join's controlling
// conditional.
type Dominance struct {
	RPONumber map[BlockID]int
	IDom      map[BlockID]BlockID
	Children  map[BlockID][]BlockID
	Frontier  map[BlockID][]BlockID
}

// ComputeDominance builds the dominator tree and dominance frontiers of cfg.
func ComputeDominance(cfg *CFG) *Dominance {
	rpo := reversePostorder(cfg)
	rpoNumber := make(map[BlockID]int, len(rpo))
	for i, id := range rpo {
		rpoNumber[id] = i
	}

	idom := make(map[BlockID]BlockID, len(rpo))
	idom[cfg.Entry] = cfg.Entry

	changed := true
	for changed {
		changed = false
		for _, b := range rpo {
			if b == cfg.Entry {
				continue
			}
			var newIdom BlockID
			found := false
			for _, e := range cfg.Block(b).Preds {
				p := e.From
				if _, ok := idom[p]; !ok {
					continue
				}
				if !found {
					newIdom = p
					found = true
					continue
				}
				newIdom = intersect(newIdom, p, idom, rpoNumber)
			}
			if !found {
				continue
			}
			if cur, ok := idom[b]; !ok || cur != newIdom {
				idom[b] = newIdom
				changed = true
			}
		}
	}

	for b, d := range idom {
		if b != cfg.Entry && d == b {
			diag.Assertf("cfgbuild", "self-dominating non-entry block %s", cfg.Block(b).Label)
		}
	}

	children := make(map[BlockID][]BlockID)
	for b, d := range idom {
		if b == cfg.Entry {
			continue
		}
		children[d] = append(children[d], b)
	}

	dom := &Dominance{RPONumber: rpoNumber, IDom: idom, Children: children}
	dom.Frontier = computeFrontiers(cfg, dom)
	return dom
}

// Dominates reports whether a dominates b (reflexively: every block
// dominates itself).
func (d *Dominance) Dominates(a, b BlockID) bool {
	for {
		if a == b {
			return true
		}
		if b == d.IDom[b] {
			return false
		}
		b = d.IDom[b]
	}
}

func intersect(a, b BlockID, idom map[BlockID]BlockID, rpoNumber map[BlockID]int) BlockID {
	for a != b {
		for rpoNumber[a] > rpoNumber[b] {
			a = idom[a]
		}
		for rpoNumber[b] > rpoNumber[a] {
			b = idom[b]
		}
	}
	return a
}

func reversePostorder(cfg *CFG) []BlockID {
	visited := make(map[BlockID]bool, len(cfg.Blocks))
	var postorder []BlockID

	var visit func(BlockID)
	visit = func(id BlockID) {
		if visited[id] {
			return
		}
		visited[id] = true
		for _, e := range cfg.Block(id).Succs {
			visit(e.To)
		}
		postorder = append(postorder, id)
	}
	visit(cfg.Entry)

	rpo := make([]BlockID, len(postorder))
	for i, id := range postorder {
		rpo[len(postorder)-1-i] = id
	}
	return rpo
}

// computeFrontiers computes dominance frontiers with the runner walk from
// Cooper, Harvey & Kennedy's paper: for every join block (two or more
// predecessors), each predecessor walks up the dominator tree to the join's
// immediate dominator, adding the join to the frontier of every block on
// the way.
func computeFrontiers(cfg *CFG, d *Dominance) map[BlockID][]BlockID {
	frontier := make(map[BlockID][]BlockID)
	for _, b := range cfg.Blocks {
		if len(b.Preds) < 2 {
			continue
		}
		for _, e := range b.Preds {
			runner := e.From
			for runner != d.IDom[b.ID] {
				frontier[runner] = appendUnique(frontier[runner], b.ID)
				runner = d.IDom[runner]
			}
		}
	}
	return frontier
}

func appendUnique(s []BlockID, v BlockID) []BlockID {
	for _, x := range s {
		if x == v {
			return s
		}
	}
	return append(s, v)
}

// BackEdgeTargets finds every block that is the target of a back edge (an
// edge u->v where v is an ancestor of u in the DFS tree rooted at Entry) —
// i.e. every loop header in a reducible CFG.
func BackEdgeTargets(cfg *CFG) map[BlockID]bool {
	visited := make(map[BlockID]bool)
	onStack := make(map[BlockID]bool)
	headers := make(map[BlockID]bool)

	var visit func(BlockID)
	visit = func(id BlockID) {
		visited[id] = true
		onStack[id] = true
		for _, e := range cfg.Block(id).Succs {
			if onStack[e.To] {
				headers[e.To] = true
				continue
			}
			if !visited[e.To] {
				visit(e.To)
			}
		}
		onStack[id] = false
	}
	visit(cfg.Entry)
	return headers
}

// ReachableExcluding returns every block reachable from start by following
// Succs, without expanding past stop (stop itself is excluded from the
// result). For a structured if-arm or loop body, this is exactly the set
// of blocks that lie on one side of the branch, or inside the loop.
func ReachableExcluding(cfg *CFG, start, stop BlockID) map[BlockID]bool {
	seen := make(map[BlockID]bool)
	var walk func(BlockID)
	walk = func(id BlockID) {
		if id == stop || seen[id] {
			return
		}
		seen[id] = true
		for _, e := range cfg.Block(id).Succs {
			walk(e.To)
		}
	}
	walk(start)
	return seen
}
