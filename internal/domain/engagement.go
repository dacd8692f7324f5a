package domain

import (
	"fmt"
	"slices"
)

// Engagement is a counter paired with the ids of the users who contributed
// to it. Count always equals len(Users).
type Engagement struct {
	Count int      `json:"count"`
	Users []string `json:"users"`
}

// Has reports whether userID contributed to e.
func (e *Engagement) Has(userID string) bool {
	return slices.Contains(e.Users, userID)
}

func (e *Engagement) add(userID string) {
	e.Users = append(e.Users, userID)
	e.Count = len(e.Users)
}

func (e *Engagement) remove(userID string) {
	e.Users = slices.DeleteFunc(e.Users, func(u string) bool { return u == userID })
	e.Count = len(e.Users)
}

func (e Engagement) clone() Engagement {
	return Engagement{Count: e.Count, Users: cloneStrings(e.Users)}
}

func (e *Engagement) check(name string) error {
	if e.Count < 0 {
		return fmt.Errorf("%s count is negative: %d", name, e.Count)
	}
	if e.Count != len(e.Users) {
		return fmt.Errorf("%s count %d does not match %d users", name, e.Count, len(e.Users))
	}
	seen := make(map[string]struct{}, len(e.Users))
	for _, u := range e.Users {
		if _, dup := seen[u]; dup {
			return fmt.Errorf("%s lists user %s twice", name, u)
		}
		seen[u] = struct{}{}
	}
	return nil
}

// EngagementState is a user's like/dislike relation to a blog. It is
// derived from set membership and never stored.
type EngagementState int

const (
	StateNeutral EngagementState = iota
	StateLiked
	StateDisliked
)

func (s EngagementState) String() string {
	switch s {
	case StateLiked:
		return "liked"
	case StateDisliked:
		return "disliked"
	default:
		return "neutral"
	}
}

type EngagementAction string

const (
	ActionLike          EngagementAction = "like"
	ActionUnlike        EngagementAction = "unlike"
	ActionDislike       EngagementAction = "dislike"
	ActionRemoveDislike EngagementAction = "remove_dislike"
	ActionView          EngagementAction = "view"
)

// EngagementState returns userID's current state on b.
func (b *Blog) EngagementState(userID string) EngagementState {
	switch {
	case b.Likes.Has(userID):
		return StateLiked
	case b.Dislikes.Has(userID):
		return StateDisliked
	default:
		return StateNeutral
	}
}

// Apply performs action for userID. A rejected action returns its error
// and leaves b untouched.
func (b *Blog) Apply(action EngagementAction, userID string) error {
	state := b.EngagementState(userID)

	switch action {
	case ActionLike:
		if state == StateLiked {
			return ErrAlreadyLiked
		}
		if state == StateDisliked {
			b.Dislikes.remove(userID)
		}
		b.Likes.add(userID)
	case ActionUnlike:
		if state != StateLiked {
			return ErrNotLiked
		}
		b.Likes.remove(userID)
	case ActionDislike:
		if state == StateDisliked {
			return ErrAlreadyDisliked
		}
		if state == StateLiked {
			b.Likes.remove(userID)
		}
		b.Dislikes.add(userID)
	case ActionRemoveDislike:
		if state != StateDisliked {
			return ErrNotDisliked
		}
		b.Dislikes.remove(userID)
	case ActionView:
		if b.Views.Has(userID) {
			return ErrAlreadyViewed
		}
		b.Views.add(userID)
	default:
		return ErrUnknownEngagement
	}
	return nil
}

// CheckEngagement verifies the counter invariants and like/dislike mutual
// exclusion.
func (b *Blog) CheckEngagement() error {
	if err := b.Likes.check("likes"); err != nil {
		return err
	}
	if err := b.Dislikes.check("dislikes"); err != nil {
		return err
	}
	if err := b.Views.check("views"); err != nil {
		return err
	}
	for _, u := range b.Likes.Users {
		if b.Dislikes.Has(u) {
			return fmt.Errorf("user %s both likes and dislikes blog %s", u, b.ID)
		}
	}
	return nil
}
