package entity

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Follow struct {
	FollowerID  Ref
	FollowingID Ref
}

func NewFollow(followerID, followingID Ref) *Follow {
	return &Follow{FollowerID: followerID, FollowingID: followingID}
}

// CreateFollow inserts the edge and reports false if it already existed.
func CreateFollow(ctx context.Context, tx pgx.Tx, f *Follow) (bool, error) {
	return queryUpdateDelete(
		ctx,
		tx,
		`insert into follow (follower_id, following_id) values ($1, $2) on conflict do nothing`,
		[]interface{}{f.FollowerID, f.FollowingID},
	)
}

func DeleteFollow(ctx context.Context, tx pgx.Tx, f *Follow) (bool, error) {
	return queryUpdateDelete(
		ctx,
		tx,
		`delete from follow where follower_id = $1 and following_id = $2`,
		[]interface{}{f.FollowerID, f.FollowingID},
	)
}

func FindFollowers(ctx context.Context, tx pgx.Tx, userID Ref) ([]UserSummary, error) {
	return findFollowSide(ctx, tx, `select u.id, u.username from "user" u join follow f on f.follower_id = u.id where f.following_id = $1 order by u.id`, userID)
}

func FindFollowing(ctx context.Context, tx pgx.Tx, userID Ref) ([]UserSummary, error) {
	return findFollowSide(ctx, tx, `select u.id, u.username from "user" u join follow f on f.following_id = u.id where f.follower_id = $1 order by u.id`, userID)
}

func findFollowSide(ctx context.Context, tx pgx.Tx, sql string, userID Ref) ([]UserSummary, error) {
	q, err := tx.Query(ctx, sql, userID)
	if err != nil {
		return nil, err
	}

	defer q.Close()
	var us []UserSummary
	for q.Next() {
		var u UserSummary
		if err := q.Scan(&u.ID, &u.Username); err != nil {
			return nil, err
		}

		us = append(us, u)
	}

	return us, q.Err()
}
