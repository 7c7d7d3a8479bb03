package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/blogapi/models"
	"github.com/cppla/blogapi/utils"
)

const (
	// ContextActorKey stores the authenticated Actor inside Gin context.
	ContextActorKey = "actor"
	// ContextClaimsKey stores bearer token claims when the request used one.
	ContextClaimsKey = "claims"

	basicRealm = `Basic realm="Authentication Required"`
)

// Actor is the identity established for the current request.
type Actor struct {
	ID       uint
	Username string
}

// AuthRequired runs the authentication gate before the wrapped handler.
// It accepts HTTP Basic credentials, or a bearer token when tokens is non-nil.
// It never makes ownership decisions.
func AuthRequired(db *gorm.DB, tokens *utils.TokenManager) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		authHeader := strings.TrimSpace(ctx.GetHeader("Authorization"))
		if authHeader == "" {
			reject(ctx, 40101, "authorization required")
			return
		}

		if username, password, ok := ctx.Request.BasicAuth(); ok {
			user, err := lookupUser(ctx, db, "username = ?", username)
			if err != nil {
				utils.Fail(ctx, err)
				ctx.Abort()
				return
			}
			if user == nil {
				// unknown users still pay one bcrypt compare
				utils.CheckPassword(utils.DummyHash(), password)
				reject(ctx, 40102, "invalid credentials")
				return
			}
			if !utils.CheckPassword(user.PasswordHash, password) {
				reject(ctx, 40102, "invalid credentials")
				return
			}
			ctx.Set(ContextActorKey, Actor{ID: user.ID, Username: user.Username})
			ctx.Next()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if tokens == nil || len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			reject(ctx, 40101, "authorization required")
			return
		}

		claims, err := tokens.Parse(ctx.Request.Context(), strings.TrimSpace(parts[1]))
		if errors.Is(err, utils.ErrTokenRevoked) {
			reject(ctx, 40104, "token revoked")
			return
		}
		if err != nil {
			reject(ctx, 40103, "invalid token")
			return
		}
		// re-read the user so deleted accounts lose access immediately
		user, err := lookupUser(ctx, db, "id = ? AND username = ?", claims.UserID, claims.Username)
		if err != nil {
			utils.Fail(ctx, err)
			ctx.Abort()
			return
		}
		if user == nil {
			reject(ctx, 40103, "invalid token")
			return
		}
		ctx.Set(ContextActorKey, Actor{ID: user.ID, Username: user.Username})
		ctx.Set(ContextClaimsKey, claims)
		ctx.Next()
	}
}

// CurrentActor returns the identity established by AuthRequired.
func CurrentActor(ctx *gin.Context) (Actor, bool) {
	v, ok := ctx.Get(ContextActorKey)
	if !ok {
		return Actor{}, false
	}
	actor, ok := v.(Actor)
	return actor, ok
}

// CurrentClaims returns the bearer token claims, if the request carried one.
func CurrentClaims(ctx *gin.Context) (*utils.Claims, bool) {
	v, ok := ctx.Get(ContextClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*utils.Claims)
	return claims, ok
}

func lookupUser(ctx *gin.Context, db *gorm.DB, query string, args ...any) (*models.User, error) {
	var user models.User
	err := db.WithContext(ctx.Request.Context()).Where(query, args...).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func reject(ctx *gin.Context, code int, message string) {
	ctx.Header("WWW-Authenticate", basicRealm)
	utils.Error(ctx, http.StatusUnauthorized, code, message)
	ctx.Abort()
}
