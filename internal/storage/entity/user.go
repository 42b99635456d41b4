package entity

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
)

type User struct {
	IdentifiableEntity
	Username        string
	Email           string
	PhoneNumber     *string
	Password        string
	ProfilePicture  *string
	BackgroundImage *string
	CreatedAt       time.Time
}

func NewUser(username, email string, phone *string, passwordHash string) *User {
	return &User{Username: username, Email: email, PhoneNumber: phone, Password: passwordHash}
}

func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Username: u.Username}
}

type UserKey int

const (
	UserKeyUsername UserKey = iota
	UserKeyEmail
	UserKeyPhone
)

func (k UserKey) column() string {
	switch k {
	case UserKeyEmail:
		return "email"
	case UserKeyPhone:
		return "phone_number"
	default:
		return "username"
	}
}

func (k UserKey) String() string {
	return k.column()
}

const userColumns = `id, username, email, phone_number, password, profile_picture, background_image, created_at`

func (u *User) scans() []interface{} {
	return []interface{}{&u.ID, &u.Username, &u.Email, &u.PhoneNumber, &u.Password, &u.ProfilePicture, &u.BackgroundImage, &u.CreatedAt}
}

func CreateUser(ctx context.Context, tx pgx.Tx, u *User) error {
	return Query(
		ctx,
		tx,
		`insert into "user" (username, email, phone_number, password) values ($1, $2, $3, $4) returning id, created_at`,
		[]interface{}{u.Username, u.Email, u.PhoneNumber, u.Password},
		[]interface{}{&u.ID, &u.CreatedAt},
	)
}

func FindUser(ctx context.Context, tx pgx.Tx, u *User) error {
	return Query(ctx, tx, `select `+userColumns+` from "user" where id = $1`, []interface{}{u.ID}, u.scans())
}

func FindUserByUsername(ctx context.Context, tx pgx.Tx, u *User) error {
	return Query(ctx, tx, `select `+userColumns+` from "user" where username = $1`, []interface{}{u.Username}, u.scans())
}

func IsUserKeyTaken(ctx context.Context, tx pgx.Tx, k UserKey, value string, exceptID ID) (bool, error) {
	return queryExists(ctx, tx, `select 1 from "user" where `+k.column()+` = $1 and id <> $2 limit 1`, []interface{}{value, exceptID})
}

func FindUsers(ctx context.Context, tx pgx.Tx) ([]*User, error) {
	q, err := tx.Query(ctx, `select `+userColumns+` from "user" order by id`)
	if err != nil {
		return nil, err
	}

	defer q.Close()
	var us []*User
	for q.Next() {
		u := &User{}
		if err := q.Scan(u.scans()...); err != nil {
			return nil, err
		}

		us = append(us, u)
	}

	return us, q.Err()
}

func UpdateUser(ctx context.Context, tx pgx.Tx, u *User) (bool, error) {
	return queryUpdateDelete(
		ctx,
		tx,
		`update "user" set username = $2, email = $3, phone_number = $4, password = $5, profile_picture = $6, background_image = $7 where id = $1`,
		[]interface{}{u.ID, u.Username, u.Email, u.PhoneNumber, u.Password, u.ProfilePicture, u.BackgroundImage},
	)
}

func DeleteUser(ctx context.Context, tx pgx.Tx, u *User) (bool, error) {
	return queryUpdateDelete(ctx, tx, `delete from "user" where id = $1`, []interface{}{u.ID})
}
