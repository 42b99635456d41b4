package api

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"pkg.mon.icu/social/internal/service"
)

func (a *API) registerReels() {
	g := a.router.Group("/reels", a.authenticate())
	a.registerPostReels(g)
	a.registerGetReels(g)
	a.registerReel(g)
	a.registerReelComments(g)
}

// registerPostReels POST /reels/ (multipart: title, description, duration, video_file, thumbnail)
func (a *API) registerPostReels(g *gin.RouterGroup) {
	g.POST("/", func(c *gin.Context) {
		var form struct {
			Title       string `form:"title" binding:"required"`
			Description string `form:"description"`
			Duration    int    `form:"duration"`
		}
		if err := c.ShouldBind(&form); err != nil {
			a.abort(c, invalid(err))
			return
		}

		video, vc, err := formUpload(c, "video_file")
		if err != nil {
			a.abort(c, err)
			return
		}
		defer vc.Close()

		in := service.ReelInput{Title: form.Title, Description: form.Description, Duration: form.Duration, Video: video}
		if _, err := c.FormFile("thumbnail"); err == nil {
			var tc io.Closer
			if in.Thumbnail, tc, err = formUpload(c, "thumbnail"); err != nil {
				a.abort(c, err)
				return
			}
			defer tc.Close()
		}

		r, err := a.service.CreateReel(c.Request.Context(), caller(c), in)
		if err != nil {
			a.abort(c, err)
			return
		}
		c.JSON(http.StatusCreated, newReelModel(r))
	})
}

// registerGetReels GET /reels/?limit=&skip=&search=
func (a *API) registerGetReels(g *gin.RouterGroup) {
	g.GET("/", func(c *gin.Context) {
		var q pageQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			a.abort(c, invalid(err))
			return
		}

		rs, err := a.service.ListReels(c.Request.Context(), q.page())
		if err != nil {
			a.abort(c, err)
			return
		}
		c.JSON(http.StatusOK, newReelModels(rs))
	})
}

// registerReel GET, PUT, DELETE /reels/:id
func (a *API) registerReel(g *gin.RouterGroup) {
	g.GET("/:id", func(c *gin.Context) {
		id, err := paramID(c, "id")
		if err != nil {
			a.abort(c, err)
			return
		}
		r, err := a.service.GetReel(c.Request.Context(), id)
		if err != nil {
			a.abort(c, err)
			return
		}
		c.JSON(http.StatusOK, newReelModel(r))
	})

	g.PUT("/:id", func(c *gin.Context) {
		id, err := paramID(c, "id")
		if err != nil {
			a.abort(c, err)
			return
		}
		var body struct {
			Title       string `json:"title" binding:"required"`
			Description string `json:"description"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			a.abort(c, invalid(err))
			return
		}

		r, err := a.service.UpdateReel(c.Request.Context(), caller(c), id, body.Title, body.Description)
		if err != nil {
			a.abort(c, err)
			return
		}
		c.JSON(http.StatusOK, newReelModel(r))
	})

	g.DELETE("/:id", func(c *gin.Context) {
		id, err := paramID(c, "id")
		if err != nil {
			a.abort(c, err)
			return
		}
		if err := a.service.DeleteReel(c.Request.Context(), caller(c), id); err != nil {
			a.abort(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})
}
