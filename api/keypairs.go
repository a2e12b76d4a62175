package api

import (
	"encoding/base64"
	"mime"
	"net/http"

	"github.com/bastionzero/toysign"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type importRequest struct {
	Name       string `json:"name" binding:"required"`
	PublicKey  []byte `json:"publicKey" binding:"required"`  // raw e || n, base64 in JSON
	PrivateKey []byte `json:"privateKey" binding:"required"` // raw d, base64 in JSON
}

func keyPairResponse(kp *toysign.KeyPair) gin.H {
	return gin.H{"id": kp.ID, "name": kp.Name, "ownerId": kp.OwnerID}
}

func (a *API) list(c *gin.Context) {
	summaries, err := a.keyPairs.List(c, owner(c))
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, summaries)
}

func (a *API) create(c *gin.Context) {
	kp, err := a.keyPairs.Create(c, owner(c), c.Query("name"))
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, keyPairResponse(kp))
}

func (a *API) importKeyPair(c *gin.Context) {
	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	pub, err := toysign.ParsePublicKey(req.PublicKey)
	if err != nil {
		a.fail(c, err)
		return
	}
	d, err := toysign.ParsePrivate(req.PrivateKey)
	if err != nil {
		a.fail(c, err)
		return
	}

	kp, err := a.keyPairs.Import(c, owner(c), req.Name, pub, d)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, keyPairResponse(kp))
}

func (a *API) rename(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	// the body is a bare JSON string
	var name string
	if err := c.ShouldBindJSON(&name); err != nil {
		badRequest(c, err)
		return
	}

	if err := a.keyPairs.Rename(c, owner(c), id, name); err != nil {
		a.fail(c, err)
		return
	}
	c.Status(http.StatusOK)
}

func (a *API) delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := a.keyPairs.Delete(c, owner(c), id); err != nil {
		a.fail(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// ?format=raw serves the key as a download, ?format=pem as text; the default is base64 JSON
func (a *API) privateKey(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	secret, err := a.keyPairs.PrivateKey(c, owner(c), id)
	if err != nil {
		a.fail(c, err)
		return
	}

	switch c.Query("format") {
	case "raw":
		attachment(c, id.String()+".key", secret.MarshalPrivate())
	case "pem":
		encoded, err := secret.EncodePrivatePEM()
		if err != nil {
			a.fail(c, err)
			return
		}
		c.String(http.StatusOK, encoded)
	default:
		c.JSON(http.StatusOK, gin.H{"privateKey": base64.StdEncoding.EncodeToString(secret.MarshalPrivate())})
	}
}

func (a *API) publicKey(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	pub, err := a.keyPairs.PublicKey(c, id)
	if err != nil {
		a.fail(c, err)
		return
	}
	raw, _ := pub.MarshalBinary()

	switch c.Query("format") {
	case "raw":
		attachment(c, id.String()+".pub", raw)
	case "pem":
		encoded, err := pub.EncodePEM()
		if err != nil {
			a.fail(c, err)
			return
		}
		c.String(http.StatusOK, encoded)
	default:
		c.JSON(http.StatusOK, gin.H{"e": pub.E, "n": pub.N, "publicKey": base64.StdEncoding.EncodeToString(raw)})
	}
}

func (a *API) sign(c *gin.Context) {
	id, err := uuid.Parse(c.PostForm("keyPairId"))
	if err != nil {
		badRequest(c, err)
		return
	}
	message, header, err := formFile(c, "file")
	if err != nil {
		a.fail(c, err)
		return
	}

	sig, err := a.keyPairs.Sign(c, owner(c), id, message)
	if err != nil {
		a.fail(c, err)
		return
	}
	attachment(c, header.Filename+".sig", sig)
}

func (a *API) checkSign(c *gin.Context) {
	id, err := uuid.Parse(c.PostForm("keyPairId"))
	if err != nil {
		badRequest(c, err)
		return
	}
	message, _, err := formFile(c, "file")
	if err != nil {
		a.fail(c, err)
		return
	}
	sig, _, err := formFile(c, "signFile")
	if err != nil {
		a.fail(c, err)
		return
	}

	valid, err := a.keyPairs.Verify(c, id, message, sig)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": valid})
}

func attachment(c *gin.Context, filename string, b []byte) {
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	c.Data(http.StatusOK, "application/octet-stream", b)
}
