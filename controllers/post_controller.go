package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/blogapi/models"
	"github.com/cppla/blogapi/utils"
)

var errNotPostAuthor = utils.NewAPIError(http.StatusUnauthorized, 40120, "you can only modify your own posts")

// PostController manages the post collection and individual posts.
type PostController struct {
	db *gorm.DB
}

// NewPostController creates a new PostController instance.
func NewPostController(db *gorm.DB) *PostController {
	return &PostController{db: db}
}

type createPostRequest struct {
	Title   string  `json:"title" binding:"required,max=140"`
	Content *string `json:"content"`
}

// updatePostRequest lists the only fields a post update may touch.
// author_id and id are not part of it and are dropped during decoding.
type updatePostRequest struct {
	Title   *string `json:"title" binding:"omitempty,max=140"`
	Content *string `json:"content"`
}

func postLocation(id uint) string {
	return fmt.Sprintf("/api/posts/%d", id)
}

// ListPosts returns every post in publication order.
func (p *PostController) ListPosts(ctx *gin.Context) {
	posts := []models.Post{}
	if err := p.db.WithContext(ctx.Request.Context()).
		Order("publication_datetime ASC, id ASC").
		Find(&posts).Error; err != nil {
		utils.Fail(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, posts)
}

// CreatePost stores a post authored by the current actor.
func (p *PostController) CreatePost(ctx *gin.Context) {
	var req createPostRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Fail(ctx, errInvalidPayload)
		return
	}
	if !validTitle(req.Title) {
		utils.Error(ctx, http.StatusBadRequest, 40002, "title must be 1 to 140 characters")
		return
	}
	if req.Content == nil {
		utils.Error(ctx, http.StatusBadRequest, 40002, "content is required")
		return
	}

	actor, err := actorOf(ctx)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}

	post := models.Post{
		AuthorID: actor.ID,
		Title:    req.Title,
		Content:  *req.Content,
	}
	if err := inTx(ctx, p.db, func(tx *gorm.DB) error {
		return tx.Create(&post).Error
	}); err != nil {
		utils.Fail(ctx, err)
		return
	}

	ctx.Header("Location", postLocation(post.ID))
	ctx.JSON(http.StatusCreated, post)
}

// GetPost returns a single post.
func (p *PostController) GetPost(ctx *gin.Context) {
	id, err := pathID(ctx, "post_id", errPostNotFound)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	post, err := findPost(p.db.WithContext(ctx.Request.Context()), id)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, post)
}

// UpdatePost lets the author change the title and content of their post.
func (p *PostController) UpdatePost(ctx *gin.Context) {
	id, err := pathID(ctx, "post_id", errPostNotFound)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	actor, err := actorOf(ctx)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}

	var post *models.Post
	err = inTx(ctx, p.db, func(tx *gorm.DB) error {
		found, err := findPost(tx, id)
		if err != nil {
			return err
		}
		post = found
		if !post.OwnedBy(actor.ID) {
			return errNotPostAuthor
		}

		var req updatePostRequest
		if err := bindUpdate(ctx, &req); err != nil {
			return err
		}
		changes := map[string]any{}
		if req.Title != nil {
			if !validTitle(*req.Title) {
				return utils.NewAPIError(http.StatusBadRequest, 40002, "title must be 1 to 140 characters")
			}
			post.Title = *req.Title
			changes["title"] = post.Title
		}
		if req.Content != nil {
			post.Content = *req.Content
			changes["content"] = post.Content
		}
		if len(changes) == 0 {
			return nil
		}
		return tx.Model(&models.Post{}).Where("id = ?", post.ID).Updates(changes).Error
	})
	if err != nil {
		utils.Fail(ctx, err)
		return
	}

	ctx.Header("Location", postLocation(post.ID))
	ctx.JSON(http.StatusOK, post)
}

// DeletePost lets the author delete their post together with its comments.
func (p *PostController) DeletePost(ctx *gin.Context) {
	id, err := pathID(ctx, "post_id", errPostNotFound)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	actor, err := actorOf(ctx)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}

	err = inTx(ctx, p.db, func(tx *gorm.DB) error {
		post, err := findPost(tx, id)
		if err != nil {
			return err
		}
		if !post.OwnedBy(actor.ID) {
			return errNotPostAuthor
		}
		return tx.Delete(post).Error
	})
	if err != nil {
		utils.Fail(ctx, err)
		return
	}

	utils.Respond(ctx, http.StatusOK, 0, "Post has been successfully deleted.", nil)
}
