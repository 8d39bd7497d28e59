package middleware

import (
	"strings"

	"xaistudy/internal"
	"xaistudy/internal/session"
	"xaistudy/models"
	"xaistudy/ports"

	"github.com/gin-gonic/gin"
)

// UserIDHeader carries the participant id for requests that have it neither in the path
// nor in the query
const UserIDHeader = "X-User-ID"

// ParticipantContext puts the participant id of the request on its context. The id is
// taken from the :user_id path parameter, the user_id query parameter or the X-User-ID
// header, in that order. Requests without one pass through unchanged.
func ParticipantContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.Param("user_id"))
		if userID == "" {
			userID = strings.TrimSpace(c.Query("user_id"))
		}
		if userID == "" {
			userID = strings.TrimSpace(c.GetHeader(UserIDHeader))
		}
		if userID != "" {
			c.Request = c.Request.WithContext(session.WithUserID(c.Request.Context(), userID))
			c.Set("user_id", userID)
		}
		c.Next()
	}
}

// LoadDemographics reads the stored profile of the current participant and puts its
// demographics on the request context. A participant that cannot be loaded is logged and
// the request continues without demographics.
func LoadDemographics(participants ports.ParticipantRepository, logger *internal.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		userID := session.UserID(ctx)
		if participants == nil || userID == "" {
			c.Next()
			return
		}

		p, err := participants.GetParticipant(ctx, userID)
		if err != nil {
			logger.Debug("[LoadDemographics] no profile for %s: %v", userID, err)
			c.Next()
			return
		}
		c.Request = c.Request.WithContext(session.WithDemographics(ctx, models.DemographicsFromProfile(p.Profile)))
		c.Next()
	}
}
