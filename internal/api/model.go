package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"pkg.mon.icu/social/internal/storage/entity"
	"pkg.mon.icu/social/internal/util"
)

type userInfoModel struct {
	ID       entity.ID `json:"id"`
	Username string    `json:"username"`
}

func newUserInfoModel(s entity.UserSummary) userInfoModel {
	return userInfoModel{s.ID, s.Username}
}

func newUserInfoModels(ss []entity.UserSummary) []userInfoModel {
	ms := make([]userInfoModel, len(ss))
	for i, s := range ss {
		ms[i] = newUserInfoModel(s)
	}
	return ms
}

type userModel struct {
	ID              entity.ID `json:"id"`
	Username        string    `json:"username"`
	Email           string    `json:"email"`
	PhoneNumber     *string   `json:"phone_number"`
	ProfilePicture  *string   `json:"profile_picture"`
	BackgroundImage *string   `json:"background_image"`
	CreatedAt       time.Time `json:"created_at"`
}

func newUserModel(u *entity.User) *userModel {
	return &userModel{u.ID, u.Username, u.Email, u.PhoneNumber, u.ProfilePicture, u.BackgroundImage, u.CreatedAt}
}

func newUserModels(us []*entity.User) []*userModel {
	ms := make([]*userModel, len(us))
	for i, u := range us {
		ms[i] = newUserModel(u)
	}
	return ms
}

type postModel struct {
	ID        entity.ID     `json:"id"`
	Title     string        `json:"title"`
	Content   string        `json:"content"`
	Published bool          `json:"published"`
	CreatedAt time.Time     `json:"created_at"`
	OwnerID   entity.Ref    `json:"owner_id"`
	Votes     int64         `json:"votes"`
	Owner     userInfoModel `json:"owner"`
}

func newPostModel(v *entity.PostView) *postModel {
	return &postModel{v.ID, v.Title, v.Content, v.Published, v.CreatedAt, v.OwnerID, v.Votes, newUserInfoModel(v.Owner)}
}

func newPostModels(vs []*entity.PostView) []*postModel {
	ms := make([]*postModel, len(vs))
	for i, v := range vs {
		ms[i] = newPostModel(v)
	}
	return ms
}

type reelModel struct {
	ID           entity.ID     `json:"id"`
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	VideoURL     string        `json:"video_url"`
	ThumbnailURL *string       `json:"thumbnail_url"`
	Duration     int           `json:"duration"`
	CreatedAt    time.Time     `json:"created_at"`
	OwnerID      entity.Ref    `json:"owner_id"`
	Votes        int64         `json:"votes"`
	Owner        userInfoModel `json:"owner"`
}

func newReelModel(v *entity.ReelView) *reelModel {
	return &reelModel{v.ID, v.Title, v.Description, v.VideoURL, v.ThumbnailURL, v.Duration, v.CreatedAt, v.OwnerID, v.Votes, newUserInfoModel(v.Owner)}
}

func newReelModels(vs []*entity.ReelView) []*reelModel {
	ms := make([]*reelModel, len(vs))
	for i, v := range vs {
		ms[i] = newReelModel(v)
	}
	return ms
}

type commentModel struct {
	ID        entity.ID     `json:"id"`
	Content   string        `json:"content"`
	CreatedAt time.Time     `json:"created_at"`
	UserID    entity.Ref    `json:"user_id"`
	PostID    *entity.ID    `json:"post_id"`
	ReelID    *entity.ID    `json:"reel_id"`
	User      userInfoModel `json:"user"`
}

func newCommentModel(v *entity.CommentView) *commentModel {
	m := &commentModel{ID: v.ID, Content: v.Content, CreatedAt: v.CreatedAt, UserID: v.UserID, User: newUserInfoModel(v.Author)}
	id := v.Target.TargetID()
	switch v.Target.Kind() {
	case entity.TargetPost:
		m.PostID = &id
	case entity.TargetReel:
		m.ReelID = &id
	}
	return m
}

func newCommentModels(vs []*entity.CommentView) []*commentModel {
	ms := make([]*commentModel, len(vs))
	for i, v := range vs {
		ms[i] = newCommentModel(v)
	}
	return ms
}

type tokenModel struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type voteModel struct {
	Message string `json:"message"`
	Votes   int64  `json:"votes"`
	IsLiked bool   `json:"is_liked"`
}

func paramID(c *gin.Context, name string) (entity.ID, error) {
	id, err := util.ParseID(c.Param(name))
	if err != nil {
		return 0, invalid(err)
	}
	return id, nil
}

type pageQuery struct {
	Limit  int    `form:"limit"`
	Skip   int    `form:"skip"`
	Search string `form:"search"`
}

func (q *pageQuery) page() entity.Page {
	return entity.Page{Limit: q.Limit, Skip: q.Skip, Search: q.Search}
}
