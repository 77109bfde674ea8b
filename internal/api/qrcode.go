package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"

	"github.com/kochabx/curvebox/errors"
)

// qrcode renders the compact "x|y" form of a published key as a PNG.
func (h *Handler) qrcode(c *gin.Context) {
	pub, err := h.dir.Lookup(c.Request.Context(), c.Param("username"))
	if err != nil {
		h.fail(c, "qrcode", err)
		return
	}
	png, err := qrcode.Encode(pub.Compact(), qrcode.Medium, qrcodeSize)
	if err != nil {
		h.fail(c, "qrcode", errors.Wrap(err, 500, "render qrcode"))
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}
