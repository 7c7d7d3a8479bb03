package models

import (
	"time"

	"gorm.io/gorm"
)

// Comment represents a reply to a post.
type Comment struct {
	ID                  uint      `gorm:"primaryKey" json:"id"`
	PostID              uint      `gorm:"index;not null" json:"post_id"`
	AuthorID            uint      `gorm:"index;not null" json:"author_id"`
	Title               string    `gorm:"size:140;not null" json:"title"`
	Content             string    `gorm:"type:text;not null" json:"content"`
	PublicationDatetime time.Time `gorm:"index;not null" json:"publication_datetime"`
	Post                Post      `gorm:"constraint:OnDelete:CASCADE;" json:"-"`
	Author              User      `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE;" json:"-"`
}

// BeforeCreate defaults the publication time to the moment of creation.
func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.PublicationDatetime.IsZero() {
		c.PublicationDatetime = time.Now().UTC()
	}
	return nil
}

// OwnedBy reports whether userID authored the comment.
func (c *Comment) OwnedBy(userID uint) bool {
	return c.AuthorID == userID
}
