package entity

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
)

type Reel struct {
	IdentifiableEntity
	Title        string
	Description  string
	VideoURL     string
	ThumbnailURL *string
	Duration     int
	CreatedAt    time.Time
	OwnerID      Ref
}

func (r *Reel) MediaURLs() []string {
	urls := []string{r.VideoURL}
	if r.ThumbnailURL != nil {
		urls = append(urls, *r.ThumbnailURL)
	}
	return urls
}

type ReelView struct {
	Reel
	Owner UserSummary
	Votes int64
}

const reelColumns = `title, description, video_url, thumbnail_url, duration, created_at, owner_id`

const reelViewSelect = `select r.id, r.title, r.description, r.video_url, r.thumbnail_url, r.duration, r.created_at, r.owner_id, u.username, count(v.reel_id)
from reel r
join "user" u on u.id = r.owner_id
left join reel_vote v on v.reel_id = r.id`

func (v *ReelView) scans() []interface{} {
	return []interface{}{&v.ID, &v.Title, &v.Description, &v.VideoURL, &v.ThumbnailURL, &v.Duration, &v.CreatedAt, &v.OwnerID, &v.Owner.Username, &v.Votes}
}

func CreateReel(ctx context.Context, tx pgx.Tx, r *Reel) error {
	return Query(
		ctx,
		tx,
		`insert into reel (title, description, video_url, thumbnail_url, duration, owner_id) values ($1, $2, $3, $4, $5, $6) returning id, created_at`,
		[]interface{}{r.Title, r.Description, r.VideoURL, r.ThumbnailURL, r.Duration, r.OwnerID},
		[]interface{}{&r.ID, &r.CreatedAt},
	)
}

func FindReel(ctx context.Context, tx pgx.Tx, r *Reel) error {
	return Query(
		ctx,
		tx,
		`select `+reelColumns+` from reel where id = $1`,
		[]interface{}{r.ID},
		[]interface{}{&r.Title, &r.Description, &r.VideoURL, &r.ThumbnailURL, &r.Duration, &r.CreatedAt, &r.OwnerID},
	)
}

func FindReelsByOwner(ctx context.Context, tx pgx.Tx, ownerID Ref) ([]*Reel, error) {
	q, err := tx.Query(ctx, `select id, `+reelColumns+` from reel where owner_id = $1 order by id`, ownerID)
	if err != nil {
		return nil, err
	}

	defer q.Close()
	var rs []*Reel
	for q.Next() {
		r := &Reel{}
		if err := q.Scan(&r.ID, &r.Title, &r.Description, &r.VideoURL, &r.ThumbnailURL, &r.Duration, &r.CreatedAt, &r.OwnerID); err != nil {
			return nil, err
		}
		rs = append(rs, r)
	}

	return rs, q.Err()
}

func FindReelView(ctx context.Context, tx pgx.Tx, id ID) (*ReelView, error) {
	v := &ReelView{}
	if err := Query(ctx, tx, reelViewSelect+` where r.id = $1 group by r.id, u.id`, []interface{}{id}, v.scans()); err != nil {
		return nil, err
	}
	v.Owner.ID = v.OwnerID
	return v, nil
}

func FindReelViews(ctx context.Context, tx pgx.Tx, pg Page) ([]*ReelView, error) {
	q, err := tx.Query(
		ctx,
		reelViewSelect+` where $3 = '' or strpos(r.title, $3) > 0 group by r.id, u.id order by r.id desc limit $1 offset $2`,
		pg.Limit, pg.Skip, pg.Search,
	)
	if err != nil {
		return nil, err
	}

	defer q.Close()
	vs := make([]*ReelView, 0, pg.Limit)
	for q.Next() {
		v := &ReelView{}
		if err := q.Scan(v.scans()...); err != nil {
			return nil, err
		}
		v.Owner.ID = v.OwnerID

		vs = append(vs, v)
	}

	return vs, q.Err()
}

func UpdateReel(ctx context.Context, tx pgx.Tx, r *Reel) (bool, error) {
	return queryUpdateDelete(
		ctx,
		tx,
		`update reel set title = $2, description = $3 where id = $1`,
		[]interface{}{r.ID, r.Title, r.Description},
	)
}

func DeleteReel(ctx context.Context, tx pgx.Tx, r *Reel) (bool, error) {
	return queryUpdateDelete(ctx, tx, `delete from reel where id = $1`, []interface{}{r.ID})
}
