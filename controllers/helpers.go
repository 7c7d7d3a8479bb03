package controllers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/blogapi/middleware"
	"github.com/cppla/blogapi/models"
	"github.com/cppla/blogapi/utils"
)

var (
	errInvalidPayload = utils.NewAPIError(http.StatusBadRequest, 40001, "invalid request payload")
	errPostNotFound   = utils.NewAPIError(http.StatusNotFound, 40401, "post not found")
	errUnauthorized   = utils.NewAPIError(http.StatusUnauthorized, 40101, "authorization required")
)

// inTx runs fn in one transaction bound to the request: committed when fn
// returns nil, rolled back on any error.
func inTx(ctx *gin.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	return db.WithContext(ctx.Request.Context()).Transaction(fn)
}

// pathID parses a numeric path parameter. Anything else cannot name a resource.
func pathID(ctx *gin.Context, name string, notFound error) (uint, error) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, notFound
	}
	return uint(id), nil
}

func actorOf(ctx *gin.Context) (middleware.Actor, error) {
	actor, ok := middleware.CurrentActor(ctx)
	if !ok {
		return middleware.Actor{}, errUnauthorized
	}
	return actor, nil
}

// findPost loads a post or reports errPostNotFound.
func findPost(tx *gorm.DB, id uint) (*models.Post, error) {
	var post models.Post
	if err := tx.First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errPostNotFound
		}
		return nil, err
	}
	return &post, nil
}

// bindUpdate decodes a partial update. An empty body is an empty update.
func bindUpdate(ctx *gin.Context, req any) error {
	if err := ctx.ShouldBindJSON(req); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return errInvalidPayload
	}
	return nil
}

// validTitle rejects blank titles and titles longer than models.TitleMaxLen runes.
func validTitle(title string) bool {
	return strings.TrimSpace(title) != "" && utf8.RuneCountInString(title) <= models.TitleMaxLen
}
