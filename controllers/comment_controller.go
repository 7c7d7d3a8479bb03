package controllers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/blogapi/models"
	"github.com/cppla/blogapi/utils"
)

var (
	errCommentNotFound  = utils.NewAPIError(http.StatusNotFound, 40402, "comment not found")
	errNotCommentAuthor = utils.NewAPIError(http.StatusUnauthorized, 40121, "you can only modify your own comments")
)

// CommentController manages comments nested under a post.
type CommentController struct {
	db *gorm.DB
}

// NewCommentController creates a new CommentController instance.
func NewCommentController(db *gorm.DB) *CommentController {
	return &CommentController{db: db}
}

type createCommentRequest struct {
	Title   string  `json:"title" binding:"required,max=140"`
	Content *string `json:"content"`
}

type updateCommentRequest struct {
	Title   *string `json:"title" binding:"omitempty,max=140"`
	Content *string `json:"content"`
}

func commentLocation(postID, commentID uint) string {
	return fmt.Sprintf("/api/posts/%d/comments/%d", postID, commentID)
}

// findComment loads a comment only if it belongs to postID. A comment under a
// different post is reported exactly like a missing one.
func findComment(tx *gorm.DB, postID, commentID uint) (*models.Comment, error) {
	var comment models.Comment
	err := tx.Where("id = ? AND post_id = ?", commentID, postID).First(&comment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errCommentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// commentPath resolves both path ids; unparsable ids are not found.
func commentPath(ctx *gin.Context) (uint, uint, error) {
	postID, err := pathID(ctx, "post_id", errCommentNotFound)
	if err != nil {
		return 0, 0, err
	}
	commentID, err := pathID(ctx, "comment_id", errCommentNotFound)
	if err != nil {
		return 0, 0, err
	}
	return postID, commentID, nil
}

// ListComments returns the comments of an existing post.
func (c *CommentController) ListComments(ctx *gin.Context) {
	postID, err := pathID(ctx, "post_id", errPostNotFound)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}

	db := c.db.WithContext(ctx.Request.Context())
	if _, err := findPost(db, postID); err != nil {
		utils.Fail(ctx, err)
		return
	}
	comments := []models.Comment{}
	if err := db.Where("post_id = ?", postID).
		Order("publication_datetime ASC, id ASC").
		Find(&comments).Error; err != nil {
		utils.Fail(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, comments)
}

// CreateComment attaches a comment by the current actor to an existing post.
func (c *CommentController) CreateComment(ctx *gin.Context) {
	postID, err := pathID(ctx, "post_id", errPostNotFound)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	actor, err := actorOf(ctx)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}

	var comment models.Comment
	err = inTx(ctx, c.db, func(tx *gorm.DB) error {
		if _, err := findPost(tx, postID); err != nil {
			return err
		}
		var req createCommentRequest
		if err := ctx.ShouldBindJSON(&req); err != nil {
			return errInvalidPayload
		}
		if !validTitle(req.Title) {
			return utils.NewAPIError(http.StatusBadRequest, 40002, "title must be 1 to 140 characters")
		}
		if req.Content == nil {
			return utils.NewAPIError(http.StatusBadRequest, 40002, "content is required")
		}
		comment = models.Comment{
			PostID:   postID,
			AuthorID: actor.ID,
			Title:    req.Title,
			Content:  *req.Content,
		}
		return tx.Create(&comment).Error
	})
	if err != nil {
		utils.Fail(ctx, err)
		return
	}

	ctx.Header("Location", commentLocation(postID, comment.ID))
	ctx.JSON(http.StatusCreated, comment)
}

// GetComment returns a comment addressed through its own post.
func (c *CommentController) GetComment(ctx *gin.Context) {
	postID, commentID, err := commentPath(ctx)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	comment, err := findComment(c.db.WithContext(ctx.Request.Context()), postID, commentID)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, comment)
}

// UpdateComment lets the author change the title and content of their comment.
func (c *CommentController) UpdateComment(ctx *gin.Context) {
	postID, commentID, err := commentPath(ctx)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	actor, err := actorOf(ctx)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}

	var comment *models.Comment
	err = inTx(ctx, c.db, func(tx *gorm.DB) error {
		found, err := findComment(tx, postID, commentID)
		if err != nil {
			return err
		}
		comment = found
		if !comment.OwnedBy(actor.ID) {
			return errNotCommentAuthor
		}

		var req updateCommentRequest
		if err := bindUpdate(ctx, &req); err != nil {
			return err
		}
		changes := map[string]any{}
		if req.Title != nil {
			if !validTitle(*req.Title) {
				return utils.NewAPIError(http.StatusBadRequest, 40002, "title must be 1 to 140 characters")
			}
			comment.Title = *req.Title
			changes["title"] = comment.Title
		}
		if req.Content != nil {
			comment.Content = *req.Content
			changes["content"] = comment.Content
		}
		if len(changes) == 0 {
			return nil
		}
		return tx.Model(&models.Comment{}).Where("id = ?", comment.ID).Updates(changes).Error
	})
	if err != nil {
		utils.Fail(ctx, err)
		return
	}

	ctx.Header("Location", commentLocation(postID, comment.ID))
	ctx.JSON(http.StatusOK, comment)
}

// DeleteComment lets the author remove their comment.
func (c *CommentController) DeleteComment(ctx *gin.Context) {
	postID, commentID, err := commentPath(ctx)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	actor, err := actorOf(ctx)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}

	err = inTx(ctx, c.db, func(tx *gorm.DB) error {
		comment, err := findComment(tx, postID, commentID)
		if err != nil {
			return err
		}
		if !comment.OwnedBy(actor.ID) {
			return errNotCommentAuthor
		}
		return tx.Delete(comment).Error
	})
	if err != nil {
		utils.Fail(ctx, err)
		return
	}

	utils.Respond(ctx, http.StatusOK, 0, "Comment has been successfully deleted.", nil)
}
