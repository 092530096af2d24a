package divik

// Node is one region of the partition tree. It records how the region's rows
// were clustered, which features that clustering saw, and one child per
// local cluster. A nil child marks a terminal branch: that cluster was not
// split any further.
//
// Nodes are built bottom-up from return values and owned exclusively by
// their parent; the root owns the whole tree. A node never changes once
// returned.
type Node struct {
	// Clustering is the fitted cluster-count selector for this region.
	Clustering *AutoKMeans

	// Selector is the feature selector that filtered this region's input.
	Selector *HighAbundanceAndVarianceSelector

	// Merged assigns each row routed to this region one of the region's own
	// local cluster IDs (0..k-1), in the order the rows were routed.
	Merged []int

	// Subregions has one entry per local cluster, ordered by cluster ID;
	// nil entries are terminal leaves.
	Subregions []*Node
}

// Depth is the number of split levels below and including this node.
// A node with only terminal children has depth 1.
func (n *Node) Depth() int {
	if n == nil {
		return 0
	}
	deepest := 0
	for _, child := range n.Subregions {
		if d := child.Depth(); d > deepest {
			deepest = d
		}
	}
	return 1 + deepest
}

// Leaves is the number of terminal regions under this node. A nil node is a
// single leaf.
func (n *Node) Leaves() int {
	if n == nil {
		return 1
	}
	total := 0
	for _, child := range n.Subregions {
		total += child.Leaves()
	}
	return total
}

// flatLabels walks the tree and assigns every original row the ID of the
// leaf it ends up in. Leaf IDs are consecutive integers in depth-first
// order, so each root-to-leaf path yields a unique label.
func flatLabels(root *Node, n int) []int {
	labels := make([]int, n)
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}

	nextLeaf := 0
	var walk func(node *Node, rows []int)
	walk = func(node *Node, rows []int) {
		if node == nil {
			for _, r := range rows {
				labels[r] = nextLeaf
			}
			nextLeaf++
			return
		}
		groups := groupRows(rows, node.Merged, len(node.Subregions))
		for c, child := range node.Subregions {
			walk(child, groups[c])
		}
	}
	walk(root, rows)
	return labels
}

// groupRows splits rows by their local cluster label. merged[i] is the label
// of rows[i].
func groupRows(rows []int, merged []int, k int) [][]int {
	groups := make([][]int, k)
	for i, r := range rows {
		c := merged[i]
		groups[c] = append(groups[c], r)
	}
	return groups
}
