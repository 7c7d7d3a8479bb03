package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/blogapi/middleware"
	"github.com/cppla/blogapi/models"
	"github.com/cppla/blogapi/utils"
)

// UserController handles registration and account level endpoints.
type UserController struct {
	db     *gorm.DB
	tokens *utils.TokenManager
}

// NewUserController creates a UserController.
func NewUserController(db *gorm.DB, tokens *utils.TokenManager) *UserController {
	return &UserController{db: db, tokens: tokens}
}

type registerRequest struct {
	Email    string `json:"email" binding:"required,email,max=120"`
	Username string `json:"username" binding:"required,max=64"`
	Password string `json:"password" binding:"required"`
}

// Register creates an account. The password is hashed before it reaches the
// model and is never stored in plaintext.
func (u *UserController) Register(ctx *gin.Context) {
	var req registerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Fail(ctx, errInvalidPayload)
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Username == "" {
		utils.Error(ctx, http.StatusBadRequest, 40002, "username cannot be empty")
		return
	}
	// HTTP Basic cannot carry a username containing a colon
	if strings.Contains(req.Username, ":") {
		utils.Error(ctx, http.StatusBadRequest, 40002, "username cannot contain ':'")
		return
	}

	if len(req.Password) > utils.MaxPasswordBytes {
		utils.Error(ctx, http.StatusBadRequest, 40002, "password must be at most 72 bytes")
		return
	}

	// hash before the transaction opens so it stays short
	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}

	user := models.User{
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: hash,
	}
	err = inTx(ctx, u.db, func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("username = ?", user.Username).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return utils.NewAPIError(http.StatusConflict, 40901, "username already exists")
		}
		if err := tx.Model(&models.User{}).Where("email = ?", user.Email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return utils.NewAPIError(http.StatusConflict, 40902, "email already exists")
		}
		return tx.Create(&user).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// lost a race with a concurrent registration
		utils.Error(ctx, http.StatusConflict, 40901, "username or email already exists")
		return
	}
	if err != nil {
		utils.Fail(ctx, err)
		return
	}

	utils.Sugar.Infow("user registered", "user_id", user.ID, "username", user.Username)
	utils.Respond(ctx, http.StatusCreated, 0, fmt.Sprintf("User %s created", user.Username), gin.H{
		"id":       user.ID,
		"username": user.Username,
	})
}

// IssueToken exchanges the credentials of the current request for a bearer token.
func (u *UserController) IssueToken(ctx *gin.Context) {
	actor, err := actorOf(ctx)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	token, claims, err := u.tokens.Issue(actor.ID, actor.Username)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Respond(ctx, http.StatusCreated, 0, "success", gin.H{
		"token":      token,
		"token_type": "Bearer",
		"expires_at": claims.ExpiresAt.Time,
	})
}

// Logout revokes the bearer token used for the request.
func (u *UserController) Logout(ctx *gin.Context) {
	claims, ok := middleware.CurrentClaims(ctx)
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40003, "logout requires a bearer token")
		return
	}
	if err := u.tokens.Revoke(ctx.Request.Context(), claims); err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Respond(ctx, http.StatusOK, 0, "token revoked", nil)
}

// DeleteMe removes the current user together with their posts and comments.
func (u *UserController) DeleteMe(ctx *gin.Context) {
	actor, err := actorOf(ctx)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}

	err = inTx(ctx, u.db, func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, actor.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.NewAPIError(http.StatusNotFound, 40403, "user not found")
			}
			return err
		}
		return tx.Delete(&user).Error
	})
	if err != nil {
		utils.Fail(ctx, err)
		return
	}

	if claims, ok := middleware.CurrentClaims(ctx); ok {
		if err := u.tokens.Revoke(ctx.Request.Context(), claims); err != nil {
			utils.Sugar.Warnw("revoke token after account deletion failed", "user_id", actor.ID, "err", err)
		}
	}
	utils.Sugar.Infow("user deleted", "user_id", actor.ID, "username", actor.Username)
	utils.Respond(ctx, http.StatusOK, 0, fmt.Sprintf("User %s has been deleted.", actor.Username), nil)
}
