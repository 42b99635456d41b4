package entity

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
)

type Comment struct {
	IdentifiableEntity
	Content   string
	CreatedAt time.Time
	UserID    Ref
	Target    Target
}

// NewComment is the only constructor of comments; a comment without a target cannot be built.
func NewComment(userID Ref, target Target, content string) (*Comment, error) {
	if target == nil {
		return nil, ErrTargetMissing
	}
	return &Comment{UserID: userID, Target: target, Content: content}, nil
}

type CommentView struct {
	Comment
	Author UserSummary
}

func CreateComment(ctx context.Context, tx pgx.Tx, c *Comment) error {
	postID, reelID := targetColumns(c.Target)
	return Query(
		ctx,
		tx,
		`insert into comment (content, user_id, post_id, reel_id) values ($1, $2, $3, $4) returning id, created_at`,
		[]interface{}{c.Content, c.UserID, postID, reelID},
		[]interface{}{&c.ID, &c.CreatedAt},
	)
}

func FindComment(ctx context.Context, tx pgx.Tx, c *Comment) error {
	var postID, reelID *ID
	if err := Query(
		ctx,
		tx,
		`select content, created_at, user_id, post_id, reel_id from comment where id = $1`,
		[]interface{}{c.ID},
		[]interface{}{&c.Content, &c.CreatedAt, &c.UserID, &postID, &reelID},
	); err != nil {
		return err
	}
	if c.UserID == 0 {
		c.ID = 0
		return nil
	}

	var err error
	c.Target, err = TargetFromIDs(postID, reelID)
	return err
}

func FindComments(ctx context.Context, tx pgx.Tx, t Target) ([]*CommentView, error) {
	column := "post_id"
	if t.Kind() == TargetReel {
		column = "reel_id"
	}

	q, err := tx.Query(
		ctx,
		`select c.id, c.content, c.created_at, c.user_id, u.username from comment c join "user" u on u.id = c.user_id where c.`+column+` = $1 order by c.created_at, c.id`,
		t.TargetID(),
	)
	if err != nil {
		return nil, err
	}

	defer q.Close()
	var cs []*CommentView
	for q.Next() {
		c := &CommentView{}
		if err := q.Scan(&c.ID, &c.Content, &c.CreatedAt, &c.UserID, &c.Author.Username); err != nil {
			return nil, err
		}
		c.Author.ID, c.Target = c.UserID, t

		cs = append(cs, c)
	}

	return cs, q.Err()
}

func UpdateComment(ctx context.Context, tx pgx.Tx, c *Comment) (bool, error) {
	return queryUpdateDelete(ctx, tx, `update comment set content = $2 where id = $1`, []interface{}{c.ID, c.Content})
}

func DeleteComment(ctx context.Context, tx pgx.Tx, c *Comment) (bool, error) {
	return queryUpdateDelete(ctx, tx, `delete from comment where id = $1`, []interface{}{c.ID})
}
