package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"pkg.mon.icu/social/internal/service"
)

func (a *API) registerUsers() {
	a.registerPostUsers()
	a.registerPostLogin()
	a.registerGetUsers()
	a.registerUsersMe()
	a.registerGetUser()
	a.registerUploadUserImages()
}

// registerPostUsers POST /users/
func (a *API) registerPostUsers() {
	a.router.POST("/users/", func(c *gin.Context) {
		var body struct {
			Username        string  `json:"username" binding:"required"`
			Email           string  `json:"email" binding:"required"`
			PhoneNumber     *string `json:"phone_number"`
			Password        string  `json:"password" binding:"required"`
			PasswordConfirm string  `json:"password_confirm" binding:"required"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			a.abort(c, invalid(err))
			return
		}

		u, err := a.service.Register(c.Request.Context(), service.Registration{
			Username:        body.Username,
			Email:           body.Email,
			PhoneNumber:     body.PhoneNumber,
			Password:        body.Password,
			PasswordConfirm: body.PasswordConfirm,
		})
		if err != nil {
			a.abort(c, err)
			return
		}
		c.JSON(http.StatusCreated, newUserModel(u))
	})
}

// registerPostLogin POST /login, POST /users/login
func (a *API) registerPostLogin() {
	login := func(c *gin.Context) {
		var form struct {
			Username string `form:"username" binding:"required"`
			Password string `form:"password" binding:"required"`
		}
		if err := c.ShouldBind(&form); err != nil {
			a.abort(c, invalid(err))
			return
		}

		token, err := a.service.Login(c.Request.Context(), form.Username, form.Password)
		if err != nil {
			a.abort(c, err)
			return
		}
		c.JSON(http.StatusOK, &tokenModel{AccessToken: token, TokenType: "bearer"})
	}
	a.router.POST("/login", login)
	a.router.POST("/users/login", login)
}

// registerGetUsers GET /users/
func (a *API) registerGetUsers() {
	a.router.GET("/users/", func(c *gin.Context) {
		us, err := a.service.ListUsers(c.Request.Context())
		if err != nil {
			a.abort(c, err)
			return
		}
		c.JSON(http.StatusOK, newUserModels(us))
	})
}

// registerUsersMe GET, PUT, DELETE /users/me
func (a *API) registerUsersMe() {
	g := a.router.Group("/users/me", a.authenticate())

	g.GET("", func(c *gin.Context) {
		c.JSON(http.StatusOK, newUserModel(caller(c)))
	})

	g.PUT("", func(c *gin.Context) {
		var body struct {
			Username        *string `json:"username"`
			Email           *string `json:"email"`
			PhoneNumber     *string `json:"phone_number"`
			CurrentPassword string  `json:"current_password"`
			NewPassword     string  `json:"new_password"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			a.abort(c, invalid(err))
			return
		}

		u, err := a.service.UpdateProfile(c.Request.Context(), caller(c), service.ProfileUpdate{
			Username:        body.Username,
			Email:           body.Email,
			PhoneNumber:     body.PhoneNumber,
			CurrentPassword: body.CurrentPassword,
			NewPassword:     body.NewPassword,
		})
		if err != nil {
			a.abort(c, err)
			return
		}
		c.JSON(http.StatusOK, newUserModel(u))
	})

	g.DELETE("", func(c *gin.Context) {
		u := caller(c)
		if err := a.service.DeleteUser(c.Request.Context(), u, u.ID); err != nil {
			a.abort(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})
}

// registerGetUser GET /users/id/:id, GET /users/username/:username
func (a *API) registerGetUser() {
	a.router.GET("/users/id/:id", func(c *gin.Context) {
		id, err := paramID(c, "id")
		if err != nil {
			a.abort(c, err)
			return
		}
		u, err := a.service.GetUser(c.Request.Context(), id)
		if err != nil {
			a.abort(c, err)
			return
		}
		c.JSON(http.StatusOK, newUserModel(u))
	})

	a.router.GET("/users/username/:username", func(c *gin.Context) {
		var param struct {
			Username string `uri:"username" binding:"required"`
		}
		if err := c.ShouldBindUri(&param); err != nil {
			a.abort(c, invalid(err))
			return
		}
		u, err := a.service.GetUserByUsername(c.Request.Context(), param.Username)
		if err != nil {
			a.abort(c, err)
			return
		}
		c.JSON(http.StatusOK, newUserModel(u))
	})
}

// registerUploadUserImages POST /users/upload-profile-picture, POST /users/upload-background-image
func (a *API) registerUploadUserImages() {
	upload := func(set func(c *gin.Context, up *service.Upload) (interface{}, error)) gin.HandlerFunc {
		return func(c *gin.Context) {
			up, closer, err := formUpload(c, "file")
			if err != nil {
				a.abort(c, err)
				return
			}
			defer closer.Close()

			res, err := set(c, up)
			if err != nil {
				a.abort(c, err)
				return
			}
			c.JSON(http.StatusOK, res)
		}
	}

	g := a.router.Group("/users", a.authenticate())
	g.POST("/upload-profile-picture", upload(func(c *gin.Context, up *service.Upload) (interface{}, error) {
		u, err := a.service.SetProfilePicture(c.Request.Context(), caller(c), up)
		if err != nil {
			return nil, err
		}
		return newUserModel(u), nil
	}))
	g.POST("/upload-background-image", upload(func(c *gin.Context, up *service.Upload) (interface{}, error) {
		u, err := a.service.SetBackgroundImage(c.Request.Context(), caller(c), up)
		if err != nil {
			return nil, err
		}
		return newUserModel(u), nil
	}))
}
