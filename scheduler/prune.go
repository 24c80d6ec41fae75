package scheduler

// pruneSelfReferences removes any S -> S edge left in the graph. The
// builder never introduces one (a fragment's source and destination block
// only produce an edge when they differ), but self-references are cheap to
// rule out explicitly here rather than rely on that being true forever, and
// keeping this as its own pass mirrors the original pipeline's separate,
// faster first pass over the same concern. Intra-block fragments are left
// untouched: they stay in a node's own write list and are resolved by the
// self-staging logic in the chain resolver.
func pruneSelfReferences(a *arena) {
	for _, n := range a.nodes {
		delete(n.out, n.index)
	}
}
