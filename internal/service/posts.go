package service

import (
	"context"

	"pkg.mon.icu/social/internal/storage"
	"pkg.mon.icu/social/internal/storage/entity"
)

type PostInput struct {
	Title     string
	Content   string
	Published *bool
}

func (in *PostInput) validate() error {
	if blank(in.Title) {
		return newError(ErrValidation, "title is required")
	}
	if blank(in.Content) {
		return newError(ErrValidation, "content is required")
	}
	return nil
}

func (in *PostInput) published() bool {
	return in.Published == nil || *in.Published
}

func (s *Service) ListPosts(ctx context.Context, pg entity.Page) ([]*entity.PostView, error) {
	pg, err := normalizePage(pg)
	if err != nil {
		return nil, err
	}

	var vs []*entity.PostView
	err = s.transact(ctx, func(q storage.Queries) error {
		var err error
		vs, err = q.FindPostViews(ctx, pg)
		return err
	})
	return vs, err
}

func (s *Service) CreatePost(ctx context.Context, caller *entity.User, in PostInput) (*entity.PostView, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var v *entity.PostView
	err := s.transact(ctx, func(q storage.Queries) error {
		p := entity.NewPost(caller.ID, in.Title, in.Content, in.published())
		if err := q.CreatePost(ctx, p); err != nil {
			return orNotFound(err, "User with ID %d not found", caller.ID)
		}
		var err error
		v, err = q.FindPostView(ctx, p.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Sugar().Debugf("User %d created post %d.", caller.ID, v.ID)
	return v, nil
}

func (s *Service) GetPost(ctx context.Context, id entity.ID) (*entity.PostView, error) {
	var v *entity.PostView
	err := s.transact(ctx, func(q storage.Queries) error {
		var err error
		v, err = q.FindPostView(ctx, id)
		return orNotFound(err, "Post with ID %d not found", id)
	})
	return v, err
}

func (s *Service) LatestPost(ctx context.Context) (*entity.PostView, error) {
	var v *entity.PostView
	err := s.transact(ctx, func(q storage.Queries) error {
		var err error
		v, err = q.FindLatestPostView(ctx)
		return orNotFound(err, "No posts yet")
	})
	return v, err
}

func ownedPost(ctx context.Context, q storage.Queries, caller *entity.User, id entity.ID, action string) (*entity.Post, error) {
	p, err := q.FindPost(ctx, id)
	if err != nil {
		return nil, orNotFound(err, "Post with ID %d not found", id)
	}
	if p.OwnerID != caller.ID {
		return nil, newError(ErrForbidden, "Not authorized to %s this post", action)
	}
	return p, nil
}

func (s *Service) UpdatePost(ctx context.Context, caller *entity.User, id entity.ID, in PostInput) (*entity.PostView, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var v *entity.PostView
	err := s.transact(ctx, func(q storage.Queries) error {
		p, err := ownedPost(ctx, q, caller, id, "update")
		if err != nil {
			return err
		}
		p.Title, p.Content = in.Title, in.Content
		if in.Published != nil {
			p.Published = *in.Published
		}
		if err := q.UpdatePost(ctx, p); err != nil {
			return err
		}
		v, err = q.FindPostView(ctx, id)
		return err
	})
	return v, err
}

func (s *Service) DeletePost(ctx context.Context, caller *entity.User, id entity.ID) error {
	return s.transact(ctx, func(q storage.Queries) error {
		if _, err := ownedPost(ctx, q, caller, id, "delete"); err != nil {
			return err
		}
		return q.DeletePost(ctx, id)
	})
}
