package view

import (
	"github.com/nasermirzaei89/remarks/accounts"
	"github.com/nasermirzaei89/remarks/discuss"
	"github.com/nasermirzaei89/remarks/thread"
)

// Item is a comment ready for rendering.
type Item struct {
	Comment discuss.Comment
	Author  accounts.User
	Depth   int
	Score   int
	Vote    int
	Owned   bool
	Replies []*Item
}

// Items returns the thread as a forest of items in display order.
func (v *View) Items() []*Item {
	v.mu.Lock()
	defer v.mu.Unlock()

	tree := thread.Build(v.comments)
	items := make(map[int64]*Item, tree.Len())
	children := make(map[int64][]int64, tree.Len())

	tree.Visit(func(comment discuss.Comment, node *thread.Node) {
		item := &Item{
			Comment: comment,
			Depth:   node.Depth,
			Score:   comment.Score + v.votes[comment.ID],
			Vote:    v.votes[comment.ID],
			Owned:   v.currentUser != nil && comment.UserID == v.currentUser.ID,
		}

		if author, ok := v.users[comment.UserID]; ok {
			item.Author = *author
		} else {
			item.Author = accounts.User{ID: comment.UserID, Username: UnknownAuthor, Avatar: accounts.DefaultAvatar}
		}

		items[comment.ID] = item
		children[comment.ID] = node.Children
	})

	for id, item := range items {
		for _, childID := range children[id] {
			item.Replies = append(item.Replies, items[childID])
		}
	}

	roots := make([]*Item, 0, len(tree.Roots))
	for _, id := range tree.Roots {
		roots = append(roots, items[id])
	}

	return roots
}
