package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"pkg.mon.icu/social/internal/service"
	"pkg.mon.icu/social/internal/storage/entity"
)

func newVoteModel(res *service.VoteResult, toggled bool) *voteModel {
	m := &voteModel{Votes: res.Votes, IsLiked: res.Liked}
	switch {
	case res.Added:
		m.Message = "Vote added"
	case toggled:
		m.Message = "Vote toggled"
	case res.Liked:
		m.Message = "Vote kept"
	default:
		m.Message = "Vote removed"
	}
	return m
}

func (a *API) registerVotes() {
	a.registerPostVote()
	a.registerPostReelsLike()
	a.registerTargetVote(a.router.Group("/posts", a.authenticate()), postTarget)
	a.registerTargetVote(a.router.Group("/reels", a.authenticate()), reelTarget)
}

func (a *API) toggleVote(c *gin.Context, t entity.Target) {
	res, err := a.service.ToggleVote(c.Request.Context(), caller(c), t)
	if err != nil {
		a.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, newVoteModel(res, true))
}

// registerPostVote POST /vote/ {post_id | reel_id}
func (a *API) registerPostVote() {
	a.router.POST("/vote/", a.authenticate(), func(c *gin.Context) {
		var body struct {
			PostID *entity.ID `json:"post_id" binding:"omitempty,min=1"`
			ReelID *entity.ID `json:"reel_id" binding:"omitempty,min=1"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			a.abort(c, invalid(err))
			return
		}
		t, err := entity.TargetFromIDs(body.PostID, body.ReelID)
		if err != nil {
			a.abort(c, &service.Error{Kind: service.ErrBadRequest, Detail: err.Error()})
			return
		}
		a.toggleVote(c, t)
	})
}

// registerPostReelsLike POST /reels/like {reel_id}
func (a *API) registerPostReelsLike() {
	a.router.POST("/reels/like", a.authenticate(), func(c *gin.Context) {
		var body struct {
			ReelID entity.ID `json:"reel_id" binding:"required,min=1"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			a.abort(c, invalid(err))
			return
		}
		a.toggleVote(c, entity.ReelTarget(body.ReelID))
	})
}

// registerTargetVote PUT, DELETE :id/vote
func (a *API) registerTargetVote(g *gin.RouterGroup, target targetFunc) {
	set := func(liked bool) gin.HandlerFunc {
		return func(c *gin.Context) {
			id, err := paramID(c, "id")
			if err != nil {
				a.abort(c, err)
				return
			}
			res, err := a.service.SetVote(c.Request.Context(), caller(c), target(id), liked)
			if err != nil {
				a.abort(c, err)
				return
			}
			c.JSON(http.StatusOK, newVoteModel(res, false))
		}
	}
	g.PUT("/:id/vote", set(true))
	g.DELETE("/:id/vote", set(false))
}
