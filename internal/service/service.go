package service

import (
	"context"
	"io"
	"strings"

	"go.uber.org/zap"
	"pkg.mon.icu/social/internal/auth"
	"pkg.mon.icu/social/internal/media"
	"pkg.mon.icu/social/internal/storage"
	"pkg.mon.icu/social/internal/storage/entity"
)

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

type Limits struct {
	MaxImageSize int64
	MaxVideoSize int64
}

// Service implements the domain operations on users, posts, reels, comments, votes and follows. Every operation
// runs in its own transaction.
type Service struct {
	logger *zap.Logger
	store  storage.Transactor
	media  *media.Store
	tokens *auth.Tokens
	limits Limits
}

func New(store storage.Transactor, mediaStore *media.Store, tokens *auth.Tokens, log *zap.Logger, limits Limits) *Service {
	return &Service{logger: log, store: store, media: mediaStore, tokens: tokens, limits: limits}
}

func (s *Service) transact(ctx context.Context, fn func(storage.Queries) error) error {
	return s.store.Transact(ctx, fn)
}

type Upload struct {
	Reader      io.Reader
	Filename    string
	ContentType string
}

func (s *Service) save(u *Upload, p media.Policy) (string, error) {
	return s.media.Save(u.Reader, u.Filename, u.ContentType, p)
}

func (s *Service) deleteMedia(urls ...string) {
	for _, u := range urls {
		if u != "" {
			s.media.Delete(u)
		}
	}
}

func normalizePage(pg entity.Page) (entity.Page, error) {
	if pg.Limit < 0 || pg.Skip < 0 {
		return pg, newError(ErrValidation, "limit and skip must not be negative")
	}
	if pg.Limit == 0 {
		pg.Limit = DefaultPageLimit
	}
	if pg.Limit > MaxPageLimit {
		pg.Limit = MaxPageLimit
	}
	return pg, nil
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
