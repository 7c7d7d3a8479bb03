package models

import (
	"time"

	"gorm.io/gorm"
)

// TitleMaxLen bounds post and comment titles, counted in runes.
const TitleMaxLen = 140

// Post is an article written by a single user.
type Post struct {
	ID                  uint      `gorm:"primaryKey" json:"id"`
	AuthorID            uint      `gorm:"index;not null" json:"author_id"`
	Title               string    `gorm:"size:140;not null" json:"title"`
	Content             string    `gorm:"type:text;not null" json:"content"`
	PublicationDatetime time.Time `gorm:"index;not null" json:"publication_datetime"`
	Author              User      `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE;" json:"-"`
}

// BeforeCreate defaults the publication time to the moment of creation.
func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.PublicationDatetime.IsZero() {
		p.PublicationDatetime = time.Now().UTC()
	}
	return nil
}

// BeforeDelete drops the post's comments ahead of the post itself.
func (p *Post) BeforeDelete(tx *gorm.DB) error {
	if p.ID == 0 {
		return nil
	}
	return tx.Session(&gorm.Session{NewDB: true}).
		Where("post_id = ?", p.ID).
		Delete(&Comment{}).Error
}

// OwnedBy reports whether userID authored the post.
func (p *Post) OwnedBy(userID uint) bool {
	return p.AuthorID == userID
}
