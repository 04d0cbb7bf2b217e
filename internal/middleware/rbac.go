package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/classquest-api/internal/models"
	appErrors "github.com/noah-isme/classquest-api/pkg/errors"
	"github.com/noah-isme/classquest-api/pkg/response"
)

// ContextActorKey stores the loaded acting user once a role check passed.
const ContextActorKey = "currentActor"

// ActorLoader resolves the acting user from its id.
type ActorLoader interface {
	Authenticate(ctx context.Context, actorID string) (*models.User, error)
}

// RequireRoles rejects requests whose user does not currently hold one of roles. The
// role is read from storage, not from the token, so onboarding takes effect at once.
func RequireRoles(loader ActorLoader, roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		actorID := ActorID(c)
		if actorID == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		user, err := loader.Authenticate(c.Request.Context(), actorID)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		if _, ok := allowed[user.Role]; !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "role not permitted for this action"))
			c.Abort()
			return
		}
		c.Set(ContextActorKey, user)
		c.Next()
	}
}

// CurrentActor returns the user stored by RequireRoles.
func CurrentActor(c *gin.Context) *models.User {
	value, exists := c.Get(ContextActorKey)
	if !exists {
		return nil
	}
	user, _ := value.(*models.User)
	return user
}
