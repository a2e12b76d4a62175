// Package api serves key pairs, signing and verification over HTTP
package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/bastionzero/toysign"
	"github.com/bastionzero/toysign/service"
	"github.com/bastionzero/toysign/store"
	"github.com/bastionzero/toysign/users"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	sessionCookie = "toysign_session"
	ownerKey      = "owner"

	// uploads past this size are rejected rather than buffered
	maxUploadSize = 32 << 20
)

var (
	errTooLarge  = fmt.Errorf("upload exceeds %d bytes", maxUploadSize)
	errBadUpload = errors.New("invalid upload")
)

type API struct {
	keyPairs *service.KeyPairs
	users    *users.Registry
	sessions *users.Sessions
	log      zerolog.Logger

	// set on the session cookie; false only for plain-HTTP development
	SecureCookies bool
}

func New(keyPairs *service.KeyPairs, registry *users.Registry, sessions *users.Sessions, log zerolog.Logger) *API {
	return &API{
		keyPairs:      keyPairs,
		users:         registry,
		sessions:      sessions,
		log:           log.With().Str("component", "api").Logger(),
		SecureCookies: true,
	}
}

// Router returns a gin engine with every route registered
func (a *API) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), a.requestLogger())
	r.MaxMultipartMemory = maxUploadSize

	u := r.Group("/api/users")
	u.POST("/register", a.register)
	u.POST("/login", a.login)
	u.GET("/logout", a.authenticated, a.logout)

	// public half: no session needed
	kp := r.Group("/api/keypairs")
	kp.GET("/:id/publickey", a.publicKey)
	kp.POST("/checksign", a.checkSign)

	owned := kp.Group("", a.authenticated)
	owned.GET("", a.list)
	owned.POST("", a.importKeyPair)
	owned.POST("/create", a.create)
	owned.GET("/:id/privatekey", a.privateKey)
	owned.PATCH("/:id/name", a.rename)
	owned.DELETE("/:id", a.delete)
	owned.POST("/sign", a.sign)

	return r
}

func (a *API) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		a.log.Info().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}

// resolves the session cookie to the caller's owner id
func (a *API) authenticated(c *gin.Context) {
	token, err := c.Cookie(sessionCookie)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": users.ErrNoSession.Error()})
		return
	}
	owner, err := a.sessions.Resolve(token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	c.Set(ownerKey, owner)
	c.Next()
}

func owner(c *gin.Context) uuid.UUID {
	return c.MustGet(ownerKey).(uuid.UUID)
}

// maps domain errors onto statuses; anything unrecognized is a 500
func (a *API) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, toysign.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrDuplicateID),
		errors.Is(err, users.ErrLoginTaken):
		status = http.StatusConflict
	case errors.Is(err, users.ErrBadCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, toysign.ErrGenerationFailure),
		errors.Is(err, toysign.ErrInsufficientPrimes):
		status = http.StatusServiceUnavailable
	case errors.Is(err, errTooLarge):
		status = http.StatusRequestEntityTooLarge
	case errors.Is(err, errBadUpload),
		errors.Is(err, toysign.ErrInvalidSignatureEncoding),
		errors.Is(err, toysign.ErrInvalidKeyEncoding),
		errors.Is(err, toysign.ErrInconsistentKeyPair),
		errors.Is(err, service.ErrInvalidName),
		errors.Is(err, users.ErrInvalidLogin),
		errors.Is(err, users.ErrPasswordTooLong):
		status = http.StatusBadRequest
	}

	switch status {
	case http.StatusInternalServerError:
		a.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	case http.StatusServiceUnavailable:
		a.log.Warn().Err(err).Str("path", c.FullPath()).Msg("key generation unavailable")
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, fmt.Errorf("invalid key pair id: %w", err))
		return uuid.Nil, false
	}
	return id, true
}

// reads an uploaded form file fully; every input shape ends up as a byte slice here
func formFile(c *gin.Context, field string) ([]byte, *multipart.FileHeader, error) {
	header, err := c.FormFile(field)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: missing form file %q", errBadUpload, field)
	}
	if header.Size > maxUploadSize {
		return nil, nil, errTooLarge
	}

	f, err := header.Open()
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	b, err := io.ReadAll(io.LimitReader(f, maxUploadSize))
	if err != nil {
		return nil, nil, err
	}
	return b, header, nil
}
