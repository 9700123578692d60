package view

// Votes live only in the view. Each comment carries a local vote of -1, 0 or
// +1 on top of its stored score.

func (v *View) Upvote(commentID int64) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if _, ok := v.find(commentID); !ok {
		return ErrUnknownComment
	}

	switch v.votes[commentID] {
	case 0:
		v.votes[commentID] = 1
	case 1:
		delete(v.votes, commentID)
	}

	return nil
}

// Downvote only goes negative while the displayed score is still positive.
func (v *View) Downvote(commentID int64) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	comment, ok := v.find(commentID)
	if !ok {
		return ErrUnknownComment
	}

	switch v.votes[commentID] {
	case 0:
		if comment.Score > 0 {
			v.votes[commentID] = -1
		}
	case -1:
		delete(v.votes, commentID)
	}

	return nil
}

func (v *View) Vote(commentID int64) int {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.votes[commentID]
}

// Score is the stored score plus the local vote.
func (v *View) Score(commentID int64) int {
	v.mu.Lock()
	defer v.mu.Unlock()

	comment, ok := v.find(commentID)
	if !ok {
		return 0
	}

	return comment.Score + v.votes[commentID]
}
