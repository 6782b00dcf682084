package middleware

import (
	"crypto/subtle"

	"license-sync/pkg/errutil"

	"github.com/gin-gonic/gin"
)

const AdminKeyHeader = "X-Admin-Key"

// AdminKey guards administrative routes behind a shared secret. The compare
// is constant-time; an empty configured key rejects everything so a missing
// ADMIN_API_KEY can never open the surface.
func AdminKey(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		provided := c.GetHeader(AdminKeyHeader)
		if key == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(key)) != 1 {
			base := errutil.BaseError{
				Code:    errutil.StatusForbidden,
				Message: "invalid admin key",
			}
			c.AbortWithStatusJSON(base.Code.HTTPStatus(), base.JSON())
			return
		}
		c.Next()
	}
}
