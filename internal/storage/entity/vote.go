package entity

import (
	"context"

	"github.com/jackc/pgx/v4"
)

// Vote is a like of a post or a reel. Post votes live in the vote table and reel votes in reel_vote, both keyed
// by (user_id, target id).
type Vote struct {
	UserID Ref
	Target Target
}

func NewVote(userID Ref, target Target) *Vote {
	return &Vote{UserID: userID, Target: target}
}

func (v *Vote) table() (table, column string) {
	if v.Target.Kind() == TargetReel {
		return "reel_vote", "reel_id"
	}
	return "vote", "post_id"
}

// CreateVote inserts the vote and reports false if it already existed.
func CreateVote(ctx context.Context, tx pgx.Tx, v *Vote) (bool, error) {
	table, column := v.table()
	return queryUpdateDelete(
		ctx,
		tx,
		`insert into `+table+` (user_id, `+column+`) values ($1, $2) on conflict do nothing`,
		[]interface{}{v.UserID, v.Target.TargetID()},
	)
}

func DeleteVote(ctx context.Context, tx pgx.Tx, v *Vote) (bool, error) {
	table, column := v.table()
	return queryUpdateDelete(
		ctx,
		tx,
		`delete from `+table+` where user_id = $1 and `+column+` = $2`,
		[]interface{}{v.UserID, v.Target.TargetID()},
	)
}

func VoteExists(ctx context.Context, tx pgx.Tx, v *Vote) (bool, error) {
	table, column := v.table()
	return queryExists(
		ctx,
		tx,
		`select 1 from `+table+` where user_id = $1 and `+column+` = $2`,
		[]interface{}{v.UserID, v.Target.TargetID()},
	)
}

func CountVotes(ctx context.Context, tx pgx.Tx, t Target) (int64, error) {
	table, column := (&Vote{Target: t}).table()
	var count int64
	if err := Query(ctx, tx, `select count(*) from `+table+` where `+column+` = $1`, []interface{}{t.TargetID()}, []interface{}{&count}); err != nil {
		return 0, err
	}

	return count, nil
}
