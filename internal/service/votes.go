package service

import (
	"context"

	"pkg.mon.icu/social/internal/storage"
	"pkg.mon.icu/social/internal/storage/entity"
)

// VoteResult is the state of a target after a vote operation. Added reports whether the operation inserted a vote.
type VoteResult struct {
	Votes int64
	Liked bool
	Added bool
}

// ToggleVote removes the caller's vote on t if there is one and adds it otherwise.
func (s *Service) ToggleVote(ctx context.Context, caller *entity.User, t entity.Target) (*VoteResult, error) {
	return s.vote(ctx, caller, t, func(exists bool) bool { return !exists })
}

// SetVote brings the caller's vote on t into the requested state. Repeating it changes nothing.
func (s *Service) SetVote(ctx context.Context, caller *entity.User, t entity.Target, liked bool) (*VoteResult, error) {
	return s.vote(ctx, caller, t, func(bool) bool { return liked })
}

func (s *Service) vote(ctx context.Context, caller *entity.User, t entity.Target, want func(exists bool) bool) (*VoteResult, error) {
	res := &VoteResult{}
	err := s.transact(ctx, func(q storage.Queries) error {
		if err := checkTarget(ctx, q, t); err != nil {
			return err
		}

		v := entity.NewVote(caller.ID, t)
		exists, err := q.VoteExists(ctx, v)
		if err != nil {
			return err
		}

		res.Liked = want(exists)
		switch {
		case res.Liked && !exists:
			// A concurrent insert of the same vote is absorbed by the primary key.
			if res.Added, err = q.CreateVote(ctx, v); err != nil {
				return err
			}
		case !res.Liked && exists:
			if _, err := q.DeleteVote(ctx, v); err != nil {
				return err
			}
		}

		res.Votes, err = q.CountVotes(ctx, t)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
