package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type credentials struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (a *API) register(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	u, err := a.users.Register(c.Request.Context(), req.Login, req.Password)
	if err != nil {
		a.fail(c, err)
		return
	}
	if !a.openSession(c, u.ID) {
		return
	}
	a.log.Info().Str("user", u.ID.String()).Msg("registered user")
	c.JSON(http.StatusOK, gin.H{"id": u.ID, "login": u.Login})
}

func (a *API) login(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	u, err := a.users.Login(c.Request.Context(), req.Login, req.Password)
	if err != nil {
		a.fail(c, err)
		return
	}
	if !a.openSession(c, u.ID) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": u.ID, "login": u.Login})
}

func (a *API) logout(c *gin.Context) {
	token, _ := c.Cookie(sessionCookie)
	a.sessions.Close(token)
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(sessionCookie, "", -1, "/", "", a.SecureCookies, true)
	c.Status(http.StatusOK)
}

func (a *API) openSession(c *gin.Context, userID uuid.UUID) bool {
	token, err := a.sessions.Open(userID)
	if err != nil {
		a.fail(c, err)
		return false
	}
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(sessionCookie, token, 0, "/", "", a.SecureCookies, true)
	return true
}
