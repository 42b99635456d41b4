package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"pkg.mon.icu/social/internal/service"
	"pkg.mon.icu/social/internal/storage/entity"
)

type commentBody struct {
	Content string `json:"content" binding:"required"`
}

type targetFunc func(id entity.ID) entity.Target

func postTarget(id entity.ID) entity.Target { return entity.PostTarget(id) }
func reelTarget(id entity.ID) entity.Target { return entity.ReelTarget(id) }

func (a *API) createComment(c *gin.Context, t entity.Target, content string) {
	cm, err := a.service.CreateComment(c.Request.Context(), caller(c), t, content)
	if err != nil {
		a.abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, newCommentModel(cm))
}

// registerTargetComments POST :id/comment, GET :id/comments
func (a *API) registerTargetComments(g *gin.RouterGroup, target targetFunc) {
	g.POST("/:id/comment", func(c *gin.Context) {
		id, err := paramID(c, "id")
		if err != nil {
			a.abort(c, err)
			return
		}
		var body commentBody
		if err := c.ShouldBindJSON(&body); err != nil {
			a.abort(c, invalid(err))
			return
		}
		a.createComment(c, target(id), body.Content)
	})

	g.GET("/:id/comments", func(c *gin.Context) {
		id, err := paramID(c, "id")
		if err != nil {
			a.abort(c, err)
			return
		}
		cs, err := a.service.ListComments(c.Request.Context(), target(id))
		if err != nil {
			a.abort(c, err)
			return
		}
		c.JSON(http.StatusOK, newCommentModels(cs))
	})
}

func (a *API) registerPostComments(g *gin.RouterGroup) {
	a.registerTargetComments(g, postTarget)
}

func (a *API) registerReelComments(g *gin.RouterGroup) {
	a.registerTargetComments(g, reelTarget)
}

// registerComments POST /comments/, PUT, DELETE /comments/:id
func (a *API) registerComments() {
	g := a.router.Group("/comments", a.authenticate())

	g.POST("/", func(c *gin.Context) {
		var body struct {
			Content string     `json:"content" binding:"required"`
			PostID  *entity.ID `json:"post_id"`
			ReelID  *entity.ID `json:"reel_id"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			a.abort(c, invalid(err))
			return
		}
		t, err := service.TargetFromIDs(body.PostID, body.ReelID)
		if err != nil {
			a.abort(c, err)
			return
		}
		a.createComment(c, t, body.Content)
	})

	g.PUT("/:id", func(c *gin.Context) {
		id, err := paramID(c, "id")
		if err != nil {
			a.abort(c, err)
			return
		}
		var body commentBody
		if err := c.ShouldBindJSON(&body); err != nil {
			a.abort(c, invalid(err))
			return
		}

		cm, err := a.service.UpdateComment(c.Request.Context(), caller(c), id, body.Content)
		if err != nil {
			a.abort(c, err)
			return
		}
		c.JSON(http.StatusOK, newCommentModel(cm))
	})

	g.DELETE("/:id", func(c *gin.Context) {
		id, err := paramID(c, "id")
		if err != nil {
			a.abort(c, err)
			return
		}
		if err := a.service.DeleteComment(c.Request.Context(), caller(c), id); err != nil {
			a.abort(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})
}
