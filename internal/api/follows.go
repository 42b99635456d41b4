package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"pkg.mon.icu/social/internal/storage/entity"
)

// registerFollows POST /users/follow/:id, POST /users/unfollow/:id and the follower listings.
func (a *API) registerFollows() {
	g := a.router.Group("/users", a.authenticate())

	g.POST("/follow/:id", func(c *gin.Context) {
		id, err := paramID(c, "id")
		if err != nil {
			a.abort(c, err)
			return
		}
		if err := a.service.Follow(c.Request.Context(), caller(c), id); err != nil {
			a.abort(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": fmt.Sprintf("You are now following user with ID %d", id)})
	})

	g.POST("/unfollow/:id", func(c *gin.Context) {
		id, err := paramID(c, "id")
		if err != nil {
			a.abort(c, err)
			return
		}
		if err := a.service.Unfollow(c.Request.Context(), caller(c), id); err != nil {
			a.abort(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("You have unfollowed user with ID %d", id)})
	})

	type lister func(ctx context.Context, id entity.ID) ([]entity.UserSummary, error)

	own := func(list lister) gin.HandlerFunc {
		return func(c *gin.Context) {
			us, err := list(c.Request.Context(), caller(c).ID)
			if err != nil {
				a.abort(c, err)
				return
			}
			c.JSON(http.StatusOK, newUserInfoModels(us))
		}
	}
	other := func(list lister) gin.HandlerFunc {
		return func(c *gin.Context) {
			id, err := paramID(c, "id")
			if err != nil {
				a.abort(c, err)
				return
			}
			us, err := list(c.Request.Context(), id)
			if err != nil {
				a.abort(c, err)
				return
			}
			c.JSON(http.StatusOK, newUserInfoModels(us))
		}
	}

	g.GET("/followers", own(a.service.Followers))
	g.GET("/following", own(a.service.Following))
	g.GET("/id/:id/followers", other(a.service.Followers))
	g.GET("/id/:id/following", other(a.service.Following))
}
