package storage

import (
	"context"

	"github.com/jackc/pgx/v4"
	"pkg.mon.icu/social/internal/storage/entity"
)

// Queries is the set of data operations available inside a transaction. Find methods return ErrNotFound for
// missing rows; create methods return ErrDuplicate on unique violations.
type Queries interface {
	CreateUser(ctx context.Context, u *entity.User) error
	FindUser(ctx context.Context, id entity.ID) (*entity.User, error)
	FindUserByUsername(ctx context.Context, username string) (*entity.User, error)
	IsUserKeyTaken(ctx context.Context, k entity.UserKey, value string, exceptID entity.ID) (bool, error)
	FindUsers(ctx context.Context) ([]*entity.User, error)
	UpdateUser(ctx context.Context, u *entity.User) error
	DeleteUser(ctx context.Context, id entity.ID) error

	CreatePost(ctx context.Context, p *entity.Post) error
	FindPost(ctx context.Context, id entity.ID) (*entity.Post, error)
	FindPostView(ctx context.Context, id entity.ID) (*entity.PostView, error)
	FindLatestPostView(ctx context.Context) (*entity.PostView, error)
	FindPostViews(ctx context.Context, pg entity.Page) ([]*entity.PostView, error)
	UpdatePost(ctx context.Context, p *entity.Post) error
	DeletePost(ctx context.Context, id entity.ID) error

	CreateReel(ctx context.Context, r *entity.Reel) error
	FindReel(ctx context.Context, id entity.ID) (*entity.Reel, error)
	FindReelsByOwner(ctx context.Context, ownerID entity.ID) ([]*entity.Reel, error)
	FindReelView(ctx context.Context, id entity.ID) (*entity.ReelView, error)
	FindReelViews(ctx context.Context, pg entity.Page) ([]*entity.ReelView, error)
	UpdateReel(ctx context.Context, r *entity.Reel) error
	DeleteReel(ctx context.Context, id entity.ID) error

	CreateComment(ctx context.Context, c *entity.Comment) error
	FindComment(ctx context.Context, id entity.ID) (*entity.Comment, error)
	FindComments(ctx context.Context, t entity.Target) ([]*entity.CommentView, error)
	UpdateComment(ctx context.Context, c *entity.Comment) error
	DeleteComment(ctx context.Context, id entity.ID) error

	CreateVote(ctx context.Context, v *entity.Vote) (bool, error)
	DeleteVote(ctx context.Context, v *entity.Vote) (bool, error)
	VoteExists(ctx context.Context, v *entity.Vote) (bool, error)
	CountVotes(ctx context.Context, t entity.Target) (int64, error)

	CreateFollow(ctx context.Context, f *entity.Follow) (bool, error)
	DeleteFollow(ctx context.Context, f *entity.Follow) (bool, error)
	FindFollowers(ctx context.Context, userID entity.ID) ([]entity.UserSummary, error)
	FindFollowing(ctx context.Context, userID entity.ID) ([]entity.UserSummary, error)
}

type pgQueries struct {
	tx pgx.Tx
}

func found(ok bool, err error) error {
	if err != nil {
		return translate(err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (q *pgQueries) CreateUser(ctx context.Context, u *entity.User) error {
	return translate(entity.CreateUser(ctx, q.tx, u))
}

func (q *pgQueries) FindUser(ctx context.Context, id entity.ID) (*entity.User, error) {
	u := &entity.User{IdentifiableEntity: entity.IdentifiableEntity{ID: id}}
	if err := entity.FindUser(ctx, q.tx, u); err != nil {
		return nil, err
	}
	if u.Username == "" {
		return nil, ErrNotFound
	}
	return u, nil
}

func (q *pgQueries) FindUserByUsername(ctx context.Context, username string) (*entity.User, error) {
	u := &entity.User{Username: username}
	if err := entity.FindUserByUsername(ctx, q.tx, u); err != nil {
		return nil, err
	}
	if u.ID == 0 {
		return nil, ErrNotFound
	}
	return u, nil
}

func (q *pgQueries) IsUserKeyTaken(ctx context.Context, k entity.UserKey, value string, exceptID entity.ID) (bool, error) {
	return entity.IsUserKeyTaken(ctx, q.tx, k, value, exceptID)
}

func (q *pgQueries) FindUsers(ctx context.Context) ([]*entity.User, error) {
	return entity.FindUsers(ctx, q.tx)
}

func (q *pgQueries) UpdateUser(ctx context.Context, u *entity.User) error {
	return found(entity.UpdateUser(ctx, q.tx, u))
}

func (q *pgQueries) DeleteUser(ctx context.Context, id entity.ID) error {
	return found(entity.DeleteUser(ctx, q.tx, &entity.User{IdentifiableEntity: entity.IdentifiableEntity{ID: id}}))
}

func (q *pgQueries) CreatePost(ctx context.Context, p *entity.Post) error {
	return translate(entity.CreatePost(ctx, q.tx, p))
}

func (q *pgQueries) FindPost(ctx context.Context, id entity.ID) (*entity.Post, error) {
	p := &entity.Post{IdentifiableEntity: entity.IdentifiableEntity{ID: id}}
	if err := entity.FindPost(ctx, q.tx, p); err != nil {
		return nil, err
	}
	if p.OwnerID == 0 {
		return nil, ErrNotFound
	}
	return p, nil
}

func (q *pgQueries) FindPostView(ctx context.Context, id entity.ID) (*entity.PostView, error) {
	v, err := entity.FindPostView(ctx, q.tx, id)
	if err != nil {
		return nil, err
	}
	if v.ID == 0 {
		return nil, ErrNotFound
	}
	return v, nil
}

func (q *pgQueries) FindLatestPostView(ctx context.Context) (*entity.PostView, error) {
	v, err := entity.FindLatestPostView(ctx, q.tx)
	if err != nil {
		return nil, err
	}
	if v.ID == 0 {
		return nil, ErrNotFound
	}
	return v, nil
}

func (q *pgQueries) FindPostViews(ctx context.Context, pg entity.Page) ([]*entity.PostView, error) {
	return entity.FindPostViews(ctx, q.tx, pg)
}

func (q *pgQueries) UpdatePost(ctx context.Context, p *entity.Post) error {
	return found(entity.UpdatePost(ctx, q.tx, p))
}

func (q *pgQueries) DeletePost(ctx context.Context, id entity.ID) error {
	return found(entity.DeletePost(ctx, q.tx, &entity.Post{IdentifiableEntity: entity.IdentifiableEntity{ID: id}}))
}

func (q *pgQueries) CreateReel(ctx context.Context, r *entity.Reel) error {
	return translate(entity.CreateReel(ctx, q.tx, r))
}

func (q *pgQueries) FindReel(ctx context.Context, id entity.ID) (*entity.Reel, error) {
	r := &entity.Reel{IdentifiableEntity: entity.IdentifiableEntity{ID: id}}
	if err := entity.FindReel(ctx, q.tx, r); err != nil {
		return nil, err
	}
	if r.OwnerID == 0 {
		return nil, ErrNotFound
	}
	return r, nil
}

func (q *pgQueries) FindReelsByOwner(ctx context.Context, ownerID entity.ID) ([]*entity.Reel, error) {
	return entity.FindReelsByOwner(ctx, q.tx, ownerID)
}

func (q *pgQueries) FindReelView(ctx context.Context, id entity.ID) (*entity.ReelView, error) {
	v, err := entity.FindReelView(ctx, q.tx, id)
	if err != nil {
		return nil, err
	}
	if v.ID == 0 {
		return nil, ErrNotFound
	}
	return v, nil
}

func (q *pgQueries) FindReelViews(ctx context.Context, pg entity.Page) ([]*entity.ReelView, error) {
	return entity.FindReelViews(ctx, q.tx, pg)
}

func (q *pgQueries) UpdateReel(ctx context.Context, r *entity.Reel) error {
	return found(entity.UpdateReel(ctx, q.tx, r))
}

func (q *pgQueries) DeleteReel(ctx context.Context, id entity.ID) error {
	return found(entity.DeleteReel(ctx, q.tx, &entity.Reel{IdentifiableEntity: entity.IdentifiableEntity{ID: id}}))
}

func (q *pgQueries) CreateComment(ctx context.Context, c *entity.Comment) error {
	return translate(entity.CreateComment(ctx, q.tx, c))
}

func (q *pgQueries) FindComment(ctx context.Context, id entity.ID) (*entity.Comment, error) {
	c := &entity.Comment{IdentifiableEntity: entity.IdentifiableEntity{ID: id}}
	if err := entity.FindComment(ctx, q.tx, c); err != nil {
		return nil, err
	}
	if c.ID == 0 {
		return nil, ErrNotFound
	}
	return c, nil
}

func (q *pgQueries) FindComments(ctx context.Context, t entity.Target) ([]*entity.CommentView, error) {
	return entity.FindComments(ctx, q.tx, t)
}

func (q *pgQueries) UpdateComment(ctx context.Context, c *entity.Comment) error {
	return found(entity.UpdateComment(ctx, q.tx, c))
}

func (q *pgQueries) DeleteComment(ctx context.Context, id entity.ID) error {
	return found(entity.DeleteComment(ctx, q.tx, &entity.Comment{IdentifiableEntity: entity.IdentifiableEntity{ID: id}}))
}

func (q *pgQueries) CreateVote(ctx context.Context, v *entity.Vote) (bool, error) {
	ok, err := entity.CreateVote(ctx, q.tx, v)
	return ok, translate(err)
}

func (q *pgQueries) DeleteVote(ctx context.Context, v *entity.Vote) (bool, error) {
	return entity.DeleteVote(ctx, q.tx, v)
}

func (q *pgQueries) VoteExists(ctx context.Context, v *entity.Vote) (bool, error) {
	return entity.VoteExists(ctx, q.tx, v)
}

func (q *pgQueries) CountVotes(ctx context.Context, t entity.Target) (int64, error) {
	return entity.CountVotes(ctx, q.tx, t)
}

func (q *pgQueries) CreateFollow(ctx context.Context, f *entity.Follow) (bool, error) {
	ok, err := entity.CreateFollow(ctx, q.tx, f)
	return ok, translate(err)
}

func (q *pgQueries) DeleteFollow(ctx context.Context, f *entity.Follow) (bool, error) {
	return entity.DeleteFollow(ctx, q.tx, f)
}

func (q *pgQueries) FindFollowers(ctx context.Context, userID entity.ID) ([]entity.UserSummary, error) {
	return entity.FindFollowers(ctx, q.tx, userID)
}

func (q *pgQueries) FindFollowing(ctx context.Context, userID entity.ID) ([]entity.UserSummary, error) {
	return entity.FindFollowing(ctx, q.tx, userID)
}
