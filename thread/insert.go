package thread

import (
	"slices"

	"github.com/nasermirzaei89/remarks/discuss"
)

// ReplyIndex returns the flat position for a new reply to parentID: right
// after the parent and the contiguous run of its replies that follows it.
// When the parent is not in comments the reply goes to the end.
func ReplyIndex(comments []discuss.Comment, parentID int64) int {
	parentIndex := slices.IndexFunc(comments, func(comment discuss.Comment) bool {
		return comment.ID == parentID
	})
	if parentIndex == -1 {
		return len(comments)
	}

	lastReplyIndex := parentIndex

	for i := parentIndex + 1; i < len(comments); i++ {
		candidate := comments[i].ParentID
		if candidate == nil || *candidate != parentID {
			break
		}

		lastReplyIndex = i
	}

	return lastReplyIndex + 1
}

// AddRoot returns a copy of comments with comment appended.
func AddRoot(comments []discuss.Comment, comment discuss.Comment) []discuss.Comment {
	return append(slices.Clone(comments), comment)
}

// AddReply returns a copy of comments with reply inserted at ReplyIndex.
func AddReply(comments []discuss.Comment, parentID int64, reply discuss.Comment) []discuss.Comment {
	return slices.Insert(slices.Clone(comments), ReplyIndex(comments, parentID), reply)
}

// Update returns a copy of comments with the comment sharing updated's id
// replaced.
func Update(comments []discuss.Comment, updated discuss.Comment) []discuss.Comment {
	result := slices.Clone(comments)

	for i := range result {
		if result[i].ID == updated.ID {
			result[i] = updated
		}
	}

	return result
}

// Remove returns a copy of comments without the comment with the given id.
func Remove(comments []discuss.Comment, id int64) []discuss.Comment {
	return slices.DeleteFunc(slices.Clone(comments), func(comment discuss.Comment) bool {
		return comment.ID == id
	})
}
