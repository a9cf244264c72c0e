// Package stability classifies SKUs into a binary search tree keyed by days
// of stock remaining. The root splits the catalog into a critical cohort on the
// left and a stable cohort on the right.
package stability

import (
	"fmt"
	"math"

	"github.com/andresuchdata/pirs/internal/domain"
)

const noChild = -1

// Item is one classified SKU.
type Item struct {
	SKU           string
	DaysRemaining float64
	Product       domain.Product
}

// Band is the natural pivot range used to pick the root of a batch. When no
// item falls inside [Low, High] the item closest to Target is used.
type Band struct {
	Low    float64
	High   float64
	Target float64
}

// DefaultBand is the 10 to 15 day pivot range.
var DefaultBand = Band{Low: 10, High: 15, Target: 12}

func (b Band) contains(v float64) bool {
	return v >= b.Low && v <= b.High
}

type node struct {
	item  Item
	left  int
	right int
}

// Tree is an unbalanced BST stored in an index arena. Equal keys go right.
// Worst-case depth is linear in the number of items; callers that cannot
// control insertion order should rely on Build and its pivot heuristic.
type Tree struct {
	nodes []node
	root  int
	band  Band
}

// New creates an empty tree that picks roots from band.
func New(band Band) *Tree {
	return &Tree{root: noChild, band: band}
}

// Build discards the current tree and inserts items, placing a pivot first.
// The pivot is the first item inside the band, otherwise the one closest to
// the band target. Remaining items keep their input order.
func (t *Tree) Build(items []Item) {
	t.nodes = make([]node, 0, len(items))
	t.root = noChild
	if len(items) == 0 {
		return
	}

	pivot := t.pivot(items)
	t.Insert(items[pivot])
	for i, item := range items {
		if i != pivot {
			t.Insert(item)
		}
	}
}

func (t *Tree) pivot(items []Item) int {
	for i, item := range items {
		if t.band.contains(item.DaysRemaining) {
			return i
		}
	}

	best, bestDist := 0, math.Inf(1)
	for i, item := range items {
		if d := math.Abs(item.DaysRemaining - t.band.Target); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// Insert descends from the root and attaches item at the first open slot.
func (t *Tree) Insert(item Item) {
	idx := len(t.nodes)
	t.nodes = append(t.nodes, node{item: item, left: noChild, right: noChild})
	if t.root == noChild {
		t.root = idx
		return
	}

	cur := t.root
	for {
		n := &t.nodes[cur]
		if item.DaysRemaining < n.item.DaysRemaining {
			if n.left == noChild {
				n.left = idx
				return
			}
			cur = n.left
		} else {
			if n.right == noChild {
				n.right = idx
				return
			}
			cur = n.right
		}
	}
}

// Len returns the number of items in the tree.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Root returns the root item, or false for an empty tree.
func (t *Tree) Root() (Item, bool) {
	if t.root == noChild {
		return Item{}, false
	}
	return t.nodes[t.root].item, true
}

// InOrder returns every item in ascending days-remaining order.
func (t *Tree) InOrder() []Item {
	return t.collect(t.root)
}

// LeftSubtree returns the items below the root's left child, all of which
// have fewer days remaining than the root.
func (t *Tree) LeftSubtree() []Item {
	if t.root == noChild {
		return nil
	}
	return t.collect(t.nodes[t.root].left)
}

// RightSubtree returns the items below the root's right child.
func (t *Tree) RightSubtree() []Item {
	if t.root == noChild {
		return nil
	}
	return t.collect(t.nodes[t.root].right)
}

func (t *Tree) collect(from int) []Item {
	out := make([]Item, 0, len(t.nodes))
	stack := make([]int, 0, 16)
	cur := from
	for cur != noChild || len(stack) > 0 {
		for cur != noChild {
			stack = append(stack, cur)
			cur = t.nodes[cur].left
		}
		cur = stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, t.nodes[cur].item)
		cur = t.nodes[cur].right
	}
	return out
}

// Height returns the number of nodes on the longest root-to-leaf path.
func (t *Tree) Height() int {
	if t.root == noChild {
		return 0
	}

	type frame struct{ idx, depth int }
	height := 0
	stack := []frame{{t.root, 1}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if f.depth > height {
			height = f.depth
		}
		n := t.nodes[f.idx]
		if n.left != noChild {
			stack = append(stack, frame{n.left, f.depth + 1})
		}
		if n.right != noChild {
			stack = append(stack, frame{n.right, f.depth + 1})
		}
	}
	return height
}

// Structure exports the tree as nodes in preorder plus parent/child edges.
func (t *Tree) Structure() domain.Graph {
	g := domain.Graph{Nodes: []domain.GraphNode{}, Edges: []domain.GraphEdge{}}
	if t.root == noChild {
		return g
	}

	stack := []int{t.root}
	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := t.nodes[idx]
		g.Nodes = append(g.Nodes, GraphNode(idx, n.item))

		// Push right first so the left child is visited next.
		for _, child := range []struct {
			idx  int
			side string
		}{{n.right, "right"}, {n.left, "left"}} {
			if child.idx == noChild {
				continue
			}
			g.Edges = append(g.Edges, domain.GraphEdge{From: nodeID(idx), To: nodeID(child.idx), Side: child.side})
			stack = append(stack, child.idx)
		}
	}
	return g
}

// GraphNode renders an item as a visualization node.
func GraphNode(idx int, item Item) domain.GraphNode {
	return domain.GraphNode{
		ID:     nodeID(idx),
		Label:  item.SKU,
		Name:   item.Product.Name,
		Value:  item.DaysRemaining,
		Status: string(domain.ClassifyDays(item.DaysRemaining)),
	}
}

// RootNode returns the visualization node for the root.
func (t *Tree) RootNode() *domain.GraphNode {
	if t.root == noChild {
		return nil
	}
	n := GraphNode(t.root, t.nodes[t.root].item)
	return &n
}

func nodeID(idx int) string {
	return fmt.Sprintf("bst-%d", idx)
}
