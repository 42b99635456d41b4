package entity

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
)

type Post struct {
	IdentifiableEntity
	Title     string
	Content   string
	Published bool
	CreatedAt time.Time
	OwnerID   Ref
}

type Ref = ID

func NewPost(ownerID Ref, title, content string, published bool) *Post {
	return &Post{Title: title, Content: content, Published: published, OwnerID: ownerID}
}

type PostView struct {
	Post
	Owner UserSummary
	Votes int64
}

const postViewSelect = `select p.id, p.title, p.content, p.published, p.created_at, p.owner_id, u.username, count(v.post_id)
from post p
join "user" u on u.id = p.owner_id
left join vote v on v.post_id = p.id`

func (v *PostView) scans() []interface{} {
	return []interface{}{&v.ID, &v.Title, &v.Content, &v.Published, &v.CreatedAt, &v.OwnerID, &v.Owner.Username, &v.Votes}
}

func CreatePost(ctx context.Context, tx pgx.Tx, p *Post) error {
	return Query(
		ctx,
		tx,
		`insert into post (title, content, published, owner_id) values ($1, $2, $3, $4) returning id, created_at`,
		[]interface{}{p.Title, p.Content, p.Published, p.OwnerID},
		[]interface{}{&p.ID, &p.CreatedAt},
	)
}

func FindPost(ctx context.Context, tx pgx.Tx, p *Post) error {
	return Query(
		ctx,
		tx,
		`select title, content, published, created_at, owner_id from post where id = $1`,
		[]interface{}{p.ID},
		[]interface{}{&p.Title, &p.Content, &p.Published, &p.CreatedAt, &p.OwnerID},
	)
}

func FindPostView(ctx context.Context, tx pgx.Tx, id ID) (*PostView, error) {
	v := &PostView{}
	if err := Query(ctx, tx, postViewSelect+` where p.id = $1 group by p.id, u.id`, []interface{}{id}, v.scans()); err != nil {
		return nil, err
	}
	v.Owner.ID = v.OwnerID
	return v, nil
}

func FindLatestPostView(ctx context.Context, tx pgx.Tx) (*PostView, error) {
	v := &PostView{}
	if err := Query(ctx, tx, postViewSelect+` group by p.id, u.id order by p.id desc limit 1`, nil, v.scans()); err != nil {
		return nil, err
	}
	v.Owner.ID = v.OwnerID
	return v, nil
}

func FindPostViews(ctx context.Context, tx pgx.Tx, pg Page) ([]*PostView, error) {
	q, err := tx.Query(
		ctx,
		postViewSelect+` where $3 = '' or strpos(p.title, $3) > 0 group by p.id, u.id order by p.id desc limit $1 offset $2`,
		pg.Limit, pg.Skip, pg.Search,
	)
	if err != nil {
		return nil, err
	}

	defer q.Close()
	vs := make([]*PostView, 0, pg.Limit)
	for q.Next() {
		v := &PostView{}
		if err := q.Scan(v.scans()...); err != nil {
			return nil, err
		}
		v.Owner.ID = v.OwnerID

		vs = append(vs, v)
	}

	return vs, q.Err()
}

func UpdatePost(ctx context.Context, tx pgx.Tx, p *Post) (bool, error) {
	return queryUpdateDelete(
		ctx,
		tx,
		`update post set title = $2, content = $3, published = $4 where id = $1`,
		[]interface{}{p.ID, p.Title, p.Content, p.Published},
	)
}

func DeletePost(ctx context.Context, tx pgx.Tx, p *Post) (bool, error) {
	return queryUpdateDelete(ctx, tx, `delete from post where id = $1`, []interface{}{p.ID})
}
