// Package thread turns the flat comment collection returned by the store
// into the parent buckets and tree used for rendering, and keeps that flat
// collection tree-consistent when comments are added locally.
package thread

import (
	"strconv"

	"github.com/nasermirzaei89/remarks/discuss"
)

// RootKey is the bucket key of comments without a parent.
const RootKey = "root"

// BucketKey returns RootKey for a nil parent and the decimal parent id otherwise.
func BucketKey(parentID *int64) string {
	if parentID == nil {
		return RootKey
	}

	return strconv.FormatInt(*parentID, 10)
}

// Index groups comments by BucketKey, preserving input order within each
// bucket. Every comment lands in exactly one bucket, including comments whose
// parent is not part of the collection.
func Index(comments []discuss.Comment) map[string][]discuss.Comment {
	buckets := make(map[string][]discuss.Comment)

	for _, comment := range comments {
		key := BucketKey(comment.ParentID)
		buckets[key] = append(buckets[key], comment)
	}

	return buckets
}

// Walk visits the buckets depth-first in pre-order starting at RootKey: a
// comment, then the bucket keyed by its id, then its next sibling. Buckets not
// reachable from RootKey are not visited. Each id is visited at most once.
func Walk(buckets map[string][]discuss.Comment, visit func(comment discuss.Comment, depth int)) {
	seen := make(map[int64]bool)

	var walk func(key string, depth int)

	walk = func(key string, depth int) {
		for _, comment := range buckets[key] {
			if seen[comment.ID] {
				continue
			}

			seen[comment.ID] = true

			visit(comment, depth)
			walk(strconv.FormatInt(comment.ID, 10), depth+1)
		}
	}

	walk(RootKey, 0)
}
