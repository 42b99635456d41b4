package service

import (
	"context"

	"pkg.mon.icu/social/internal/storage"
	"pkg.mon.icu/social/internal/storage/entity"
)

func checkUser(ctx context.Context, q storage.Queries, id entity.ID) error {
	_, err := q.FindUser(ctx, id)
	return orNotFound(err, "User with ID %d not found", id)
}

func (s *Service) Follow(ctx context.Context, caller *entity.User, id entity.ID) error {
	if caller.ID == id {
		return newError(ErrBadRequest, "You cannot follow yourself")
	}
	return s.transact(ctx, func(q storage.Queries) error {
		if err := checkUser(ctx, q, id); err != nil {
			return err
		}
		created, err := q.CreateFollow(ctx, entity.NewFollow(caller.ID, id))
		if err != nil {
			return err
		}
		if !created {
			return newError(ErrConflict, "You are already following this user")
		}
		return nil
	})
}

func (s *Service) Unfollow(ctx context.Context, caller *entity.User, id entity.ID) error {
	return s.transact(ctx, func(q storage.Queries) error {
		if err := checkUser(ctx, q, id); err != nil {
			return err
		}
		deleted, err := q.DeleteFollow(ctx, entity.NewFollow(caller.ID, id))
		if err != nil {
			return err
		}
		if !deleted {
			return newError(ErrNotFound, "You are not following this user")
		}
		return nil
	})
}

func (s *Service) Followers(ctx context.Context, id entity.ID) ([]entity.UserSummary, error) {
	return s.followSide(ctx, id, storage.Queries.FindFollowers)
}

func (s *Service) Following(ctx context.Context, id entity.ID) ([]entity.UserSummary, error) {
	return s.followSide(ctx, id, storage.Queries.FindFollowing)
}

func (s *Service) followSide(ctx context.Context, id entity.ID, find func(storage.Queries, context.Context, entity.ID) ([]entity.UserSummary, error)) ([]entity.UserSummary, error) {
	var us []entity.UserSummary
	err := s.transact(ctx, func(q storage.Queries) error {
		if err := checkUser(ctx, q, id); err != nil {
			return err
		}
		var err error
		us, err = find(q, ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if us == nil {
		us = []entity.UserSummary{}
	}
	return us, nil
}
