package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"pkg.mon.icu/social/internal/service"
)

type postBody struct {
	Title     string `json:"title" binding:"required"`
	Content   string `json:"content" binding:"required"`
	Published *bool  `json:"published"`
}

func (b *postBody) input() service.PostInput {
	return service.PostInput{Title: b.Title, Content: b.Content, Published: b.Published}
}

func (a *API) registerPosts() {
	g := a.router.Group("/posts", a.authenticate())
	a.registerGetPosts(g)
	a.registerPostPosts(g)
	a.registerGetPostsLatest(g)
	a.registerPost(g)
	a.registerPostComments(g)
}

// registerGetPosts GET /posts/?limit=&skip=&search=
func (a *API) registerGetPosts(g *gin.RouterGroup) {
	g.GET("/", func(c *gin.Context) {
		var q pageQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			a.abort(c, invalid(err))
			return
		}

		ps, err := a.service.ListPosts(c.Request.Context(), q.page())
		if err != nil {
			a.abort(c, err)
			return
		}
		c.JSON(http.StatusOK, newPostModels(ps))
	})
}

// registerPostPosts POST /posts/
func (a *API) registerPostPosts(g *gin.RouterGroup) {
	g.POST("/", func(c *gin.Context) {
		var body postBody
		if err := c.ShouldBindJSON(&body); err != nil {
			a.abort(c, invalid(err))
			return
		}

		p, err := a.service.CreatePost(c.Request.Context(), caller(c), body.input())
		if err != nil {
			a.abort(c, err)
			return
		}
		c.JSON(http.StatusCreated, newPostModel(p))
	})
}

// registerGetPostsLatest GET /posts/latest
func (a *API) registerGetPostsLatest(g *gin.RouterGroup) {
	g.GET("/latest", func(c *gin.Context) {
		p, err := a.service.LatestPost(c.Request.Context())
		if err != nil {
			a.abort(c, err)
			return
		}
		c.JSON(http.StatusOK, newPostModel(p))
	})
}

// registerPost GET, PUT, DELETE /posts/:id
func (a *API) registerPost(g *gin.RouterGroup) {
	g.GET("/:id", func(c *gin.Context) {
		id, err := paramID(c, "id")
		if err != nil {
			a.abort(c, err)
			return
		}
		p, err := a.service.GetPost(c.Request.Context(), id)
		if err != nil {
			a.abort(c, err)
			return
		}
		c.JSON(http.StatusOK, newPostModel(p))
	})

	g.PUT("/:id", func(c *gin.Context) {
		id, err := paramID(c, "id")
		if err != nil {
			a.abort(c, err)
			return
		}
		var body postBody
		if err := c.ShouldBindJSON(&body); err != nil {
			a.abort(c, invalid(err))
			return
		}

		p, err := a.service.UpdatePost(c.Request.Context(), caller(c), id, body.input())
		if err != nil {
			a.abort(c, err)
			return
		}
		c.JSON(http.StatusOK, newPostModel(p))
	})

	g.DELETE("/:id", func(c *gin.Context) {
		id, err := paramID(c, "id")
		if err != nil {
			a.abort(c, err)
			return
		}
		if err := a.service.DeletePost(c.Request.Context(), caller(c), id); err != nil {
			a.abort(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})
}
