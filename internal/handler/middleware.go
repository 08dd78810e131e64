package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/quietdesk/backend/internal/service"
	"k8s.io/klog/v2"
)

// ownerKey is the gin context key holding the acting owner ID.
const ownerKey = "ownerID"

// defaultOwnerID serves requests without an X-Owner-ID header. Single-user
// deployments never send the header.
const defaultOwnerID uint = 1

// OwnerScope resolves the acting owner from the X-Owner-ID header and seeds
// the owner's default team on first contact. Authentication happens upstream;
// the header marks the trust boundary.
func OwnerScope(personaService service.PersonaService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ownerID := defaultOwnerID
		if raw := c.GetHeader("X-Owner-ID"); raw != "" {
			parsed, err := strconv.ParseUint(raw, 10, 32)
			if err != nil || parsed == 0 {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid X-Owner-ID header"})
				return
			}
			ownerID = uint(parsed)
		}

		if err := personaService.EnsureDefaultTeam(c.Request.Context(), ownerID); err != nil {
			klog.Errorf("failed to seed default team: ownerID=%d, err=%v", ownerID, err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to prepare workspace"})
			return
		}

		c.Set(ownerKey, ownerID)
		c.Next()
	}
}

// ownerID reads the owner resolved by OwnerScope.
func ownerID(c *gin.Context) uint {
	return c.GetUint(ownerKey)
}
