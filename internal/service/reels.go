package service

import (
	"context"

	"pkg.mon.icu/social/internal/media"
	"pkg.mon.icu/social/internal/storage"
	"pkg.mon.icu/social/internal/storage/entity"
)

const (
	reelVideoDir     = "reels"
	reelThumbnailDir = "reels/thumbnails"
)

type ReelInput struct {
	Title       string
	Description string
	Duration    int
	Video       *Upload
	Thumbnail   *Upload
}

func (s *Service) CreateReel(ctx context.Context, caller *entity.User, in ReelInput) (*entity.ReelView, error) {
	if blank(in.Title) {
		return nil, newError(ErrValidation, "title is required")
	}
	if in.Duration < 0 {
		return nil, newError(ErrValidation, "duration must not be negative")
	}
	if in.Video == nil {
		return nil, newError(ErrValidation, "video file is required")
	}

	videoURL, err := s.save(in.Video, media.VideoPolicy(reelVideoDir, s.limits.MaxVideoSize))
	if err != nil {
		return nil, err
	}
	r := &entity.Reel{Title: in.Title, Description: in.Description, VideoURL: videoURL, Duration: in.Duration, OwnerID: caller.ID}

	if in.Thumbnail != nil {
		thumbURL, err := s.save(in.Thumbnail, media.ImagePolicy(reelThumbnailDir, s.limits.MaxImageSize))
		if err != nil {
			s.deleteMedia(videoURL)
			return nil, err
		}
		r.ThumbnailURL = &thumbURL
	}

	var v *entity.ReelView
	err = s.transact(ctx, func(q storage.Queries) error {
		if err := q.CreateReel(ctx, r); err != nil {
			return orNotFound(err, "User with ID %d not found", caller.ID)
		}
		var err error
		v, err = q.FindReelView(ctx, r.ID)
		return err
	})
	if err != nil {
		s.deleteMedia(r.MediaURLs()...)
		return nil, err
	}

	s.logger.Sugar().Debugf("User %d created reel %d with video %s.", caller.ID, v.ID, videoURL)
	return v, nil
}

func (s *Service) ListReels(ctx context.Context, pg entity.Page) ([]*entity.ReelView, error) {
	pg, err := normalizePage(pg)
	if err != nil {
		return nil, err
	}

	var vs []*entity.ReelView
	err = s.transact(ctx, func(q storage.Queries) error {
		var err error
		vs, err = q.FindReelViews(ctx, pg)
		return err
	})
	return vs, err
}

func (s *Service) GetReel(ctx context.Context, id entity.ID) (*entity.ReelView, error) {
	var v *entity.ReelView
	err := s.transact(ctx, func(q storage.Queries) error {
		var err error
		v, err = q.FindReelView(ctx, id)
		return orNotFound(err, "Reel with ID %d not found", id)
	})
	return v, err
}

func ownedReel(ctx context.Context, q storage.Queries, caller *entity.User, id entity.ID, action string) (*entity.Reel, error) {
	r, err := q.FindReel(ctx, id)
	if err != nil {
		return nil, orNotFound(err, "Reel with ID %d not found", id)
	}
	if r.OwnerID != caller.ID {
		return nil, newError(ErrForbidden, "Not authorized to %s this reel", action)
	}
	return r, nil
}

func (s *Service) UpdateReel(ctx context.Context, caller *entity.User, id entity.ID, title, description string) (*entity.ReelView, error) {
	if blank(title) {
		return nil, newError(ErrValidation, "title is required")
	}

	var v *entity.ReelView
	err := s.transact(ctx, func(q storage.Queries) error {
		r, err := ownedReel(ctx, q, caller, id, "update")
		if err != nil {
			return err
		}
		r.Title, r.Description = title, description
		if err := q.UpdateReel(ctx, r); err != nil {
			return err
		}
		v, err = q.FindReelView(ctx, id)
		return err
	})
	return v, err
}

func (s *Service) DeleteReel(ctx context.Context, caller *entity.User, id entity.ID) error {
	var files []string
	err := s.transact(ctx, func(q storage.Queries) error {
		r, err := ownedReel(ctx, q, caller, id, "delete")
		if err != nil {
			return err
		}
		files = r.MediaURLs()
		return q.DeleteReel(ctx, id)
	})
	if err != nil {
		return err
	}

	s.deleteMedia(files...)
	return nil
}
