// Copyright (c) 2026 The Platform developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"github.com/chinyuchan/platform/module"
	"github.com/chinyuchan/platform/platform"
	"github.com/chinyuchan/platform/tx"
)

// access is the declared resource footprint of one envelope, with every
// resource scoped by module name so modules cannot collide with each
// other's naming.
type access struct {
	reads    []string
	writes   []string
	consumes []string
}

func accessOf(m module.Module, env *tx.Transaction) *access {
	accessor, ok := m.(module.Accessor)
	if !ok {
		return nil
	}
	reads, writes, consumes, err := accessor.Resources(env)
	if err != nil {
		// undeclarable envelopes fall back to sequential handling; they
		// will fail classification again at delivery
		return nil
	}
	scope := m.Name() + "/"
	ac := &access{}
	for _, r := range reads {
		ac.reads = append(ac.reads, scope+string(r))
	}
	for _, w := range writes {
		ac.writes = append(ac.writes, scope+string(w))
	}
	for _, c := range consumes {
		ac.consumes = append(ac.consumes, scope+string(c))
	}
	return ac
}

// conflictIndex tracks consumed resources inside the open block. The
// first claimant of a resource wins; a later claimant is rejected before
// any state is touched.
type conflictIndex struct {
	claimed map[string]platform.Bytes32
}

func newConflictIndex() *conflictIndex {
	return &conflictIndex{claimed: make(map[string]platform.Bytes32)}
}

// claim registers the consumed resources of an envelope. When any of them
// is already held, nothing is registered and the holder's tx ID is
// returned.
func (c *conflictIndex) claim(ac *access, id platform.Bytes32) (platform.Bytes32, bool) {
	if ac == nil {
		return platform.Bytes32{}, true
	}
	for _, res := range ac.consumes {
		if holder, ok := c.claimed[res]; ok {
			return holder, false
		}
	}
	for _, res := range ac.consumes {
		c.claimed[res] = id
	}
	return platform.Bytes32{}, true
}

// release frees the claims of an envelope whose delivery failed, so its
// inputs stay spendable by later envelopes in the same block.
func (c *conflictIndex) release(ac *access, id platform.Bytes32) {
	if ac == nil {
		return
	}
	for _, res := range ac.consumes {
		if c.claimed[res] == id {
			delete(c.claimed, res)
		}
	}
}

// unionFind partitions envelopes into dependency groups. Path-halving
// find, union by size.
type unionFind struct {
	parent []int
	size   []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n), size: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
		uf.size[i] = 1
	}
	return uf
}

func (u *unionFind) find(x int) int {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	if u.size[ra] < u.size[rb] {
		ra, rb = rb, ra
	}
	u.parent[rb] = ra
	u.size[ra] += u.size[rb]
}

// dependencyGroups splits the ordered envelope list into groups that
// share no resources. Envelopes inside a group keep their submission
// order; distinct groups are independent and safe to prevalidate
// concurrently. Grouping never affects delivery order or outcomes.
func dependencyGroups(accesses []*access) [][]int {
	uf := newUnionFind(len(accesses))
	firstSeen := make(map[string]int)

	for i, ac := range accesses {
		if ac == nil {
			continue
		}
		for _, res := range joined(ac) {
			if j, ok := firstSeen[res]; ok {
				uf.union(i, j)
			} else {
				firstSeen[res] = i
			}
		}
	}

	groupIdx := make(map[int]int)
	var groups [][]int
	for i := range accesses {
		root := uf.find(i)
		gi, ok := groupIdx[root]
		if !ok {
			gi = len(groups)
			groupIdx[root] = gi
			groups = append(groups, nil)
		}
		groups[gi] = append(groups[gi], i)
	}
	return groups
}

func joined(ac *access) []string {
	all := make([]string, 0, len(ac.reads)+len(ac.writes)+len(ac.consumes))
	all = append(all, ac.reads...)
	all = append(all, ac.writes...)
	return append(all, ac.consumes...)
}
