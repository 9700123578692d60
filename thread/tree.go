package thread

import (
	"strconv"

	"github.com/nasermirzaei89/remarks/discuss"
)

// Node is one rendered comment. It owns the ids of its children, in display
// order; the comment itself stays in the flat collection.
type Node struct {
	ID       int64
	Depth    int
	Children []int64
}

// Tree is built once per render pass from the flat collection.
type Tree struct {
	Roots []int64

	comments  []discuss.Comment
	positions map[int64]int
	nodes     map[int64]*Node
}

// Build derives the tree from comments. Roots are the "root" bucket followed
// by comments whose parent is missing from the collection, in flat order.
// Comments only reachable through a parent cycle are left out.
func Build(comments []discuss.Comment) *Tree {
	t := &Tree{
		comments:  comments,
		positions: make(map[int64]int, len(comments)),
		nodes:     make(map[int64]*Node, len(comments)),
	}

	for i, comment := range comments {
		if _, ok := t.positions[comment.ID]; !ok {
			t.positions[comment.ID] = i
		}
	}

	buckets := Index(comments)

	roots := buckets[RootKey]

	for _, comment := range comments {
		if comment.ParentID == nil {
			continue
		}

		if _, ok := t.positions[*comment.ParentID]; !ok {
			roots = append(roots, comment)
		}
	}

	var attach func(comment discuss.Comment, depth int)

	attach = func(comment discuss.Comment, depth int) {
		node := &Node{ID: comment.ID, Depth: depth}
		t.nodes[comment.ID] = node

		for _, child := range buckets[strconv.FormatInt(comment.ID, 10)] {
			if _, done := t.nodes[child.ID]; done {
				continue
			}

			node.Children = append(node.Children, child.ID)
			attach(child, depth+1)
		}
	}

	for _, root := range roots {
		if _, done := t.nodes[root.ID]; done {
			continue
		}

		t.Roots = append(t.Roots, root.ID)
		attach(root, 0)
	}

	return t
}

// Len returns the number of nodes in the tree.
func (t *Tree) Len() int {
	return len(t.nodes)
}

func (t *Tree) Node(id int64) (*Node, bool) {
	node, ok := t.nodes[id]

	return node, ok
}

func (t *Tree) Comment(id int64) (discuss.Comment, bool) {
	i, ok := t.positions[id]
	if !ok {
		return discuss.Comment{}, false
	}

	return t.comments[i], true
}

// Visit calls fn for every node in depth-first pre-order.
func (t *Tree) Visit(fn func(comment discuss.Comment, node *Node)) {
	var visit func(id int64)

	visit = func(id int64) {
		node := t.nodes[id]
		fn(t.comments[t.positions[id]], node)

		for _, child := range node.Children {
			visit(child)
		}
	}

	for _, id := range t.Roots {
		visit(id)
	}
}
