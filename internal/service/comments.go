package service

import (
	"context"
	"errors"

	"pkg.mon.icu/social/internal/storage"
	"pkg.mon.icu/social/internal/storage/entity"
)

func targetNotFound(t entity.Target) error {
	switch t.Kind() {
	case entity.TargetReel:
		return newError(ErrNotFound, "Reel with ID %d not found", t.TargetID())
	default:
		return newError(ErrNotFound, "Post with ID %d not found", t.TargetID())
	}
}

func checkTarget(ctx context.Context, q storage.Queries, t entity.Target) error {
	var err error
	switch t.Kind() {
	case entity.TargetReel:
		_, err = q.FindReel(ctx, t.TargetID())
	default:
		_, err = q.FindPost(ctx, t.TargetID())
	}
	if errors.Is(err, storage.ErrNotFound) {
		return targetNotFound(t)
	}
	return err
}

// TargetFromIDs picks the comment target from two optional ids, exactly one of which must be set.
func TargetFromIDs(postID, reelID *entity.ID) (entity.Target, error) {
	t, err := entity.TargetFromIDs(postID, reelID)
	if err != nil {
		return nil, newError(ErrValidation, "%s", err)
	}
	return t, nil
}

func (s *Service) CreateComment(ctx context.Context, caller *entity.User, t entity.Target, content string) (*entity.CommentView, error) {
	if blank(content) {
		return nil, newError(ErrValidation, "content is required")
	}
	c, err := entity.NewComment(caller.ID, t, content)
	if err != nil {
		return nil, newError(ErrValidation, "%s", err)
	}

	err = s.transact(ctx, func(q storage.Queries) error {
		if err := checkTarget(ctx, q, t); err != nil {
			return err
		}
		if err := q.CreateComment(ctx, c); err != nil {
			return orNotFound(err, "User with ID %d not found", caller.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &entity.CommentView{Comment: *c, Author: caller.Summary()}, nil
}

func (s *Service) ListComments(ctx context.Context, t entity.Target) ([]*entity.CommentView, error) {
	var cs []*entity.CommentView
	err := s.transact(ctx, func(q storage.Queries) error {
		if err := checkTarget(ctx, q, t); err != nil {
			return err
		}
		var err error
		cs, err = q.FindComments(ctx, t)
		return err
	})
	return cs, err
}

func ownedComment(ctx context.Context, q storage.Queries, caller *entity.User, id entity.ID, action string) (*entity.Comment, error) {
	c, err := q.FindComment(ctx, id)
	if err != nil {
		return nil, orNotFound(err, "Comment with ID %d not found", id)
	}
	if c.UserID != caller.ID {
		return nil, newError(ErrForbidden, "Not authorized to %s this comment", action)
	}
	return c, nil
}

func (s *Service) UpdateComment(ctx context.Context, caller *entity.User, id entity.ID, content string) (*entity.CommentView, error) {
	if blank(content) {
		return nil, newError(ErrValidation, "content is required")
	}

	var c *entity.Comment
	err := s.transact(ctx, func(q storage.Queries) error {
		var err error
		if c, err = ownedComment(ctx, q, caller, id, "update"); err != nil {
			return err
		}
		c.Content = content
		return q.UpdateComment(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	return &entity.CommentView{Comment: *c, Author: caller.Summary()}, nil
}

func (s *Service) DeleteComment(ctx context.Context, caller *entity.User, id entity.ID) error {
	return s.transact(ctx, func(q storage.Queries) error {
		if _, err := ownedComment(ctx, q, caller, id, "delete"); err != nil {
			return err
		}
		return q.DeleteComment(ctx, id)
	})
}
