package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a blog author. Passwords are stored as bcrypt hashes only.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"size:120;not null;uniqueIndex" json:"email"`
	Username     string    `gorm:"size:64;not null;uniqueIndex" json:"username"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	CreatedAt    time.Time `json:"-"`
}

// BeforeDelete removes everything the user authored plus the comments left on
// their posts, so no post or comment outlives its author.
func (u *User) BeforeDelete(tx *gorm.DB) error {
	if u.ID == 0 {
		return nil
	}
	tx = tx.Session(&gorm.Session{NewDB: true})
	ownPosts := tx.Model(&Post{}).Select("id").Where("author_id = ?", u.ID)
	if err := tx.Where("author_id = ? OR post_id IN (?)", u.ID, ownPosts).Delete(&Comment{}).Error; err != nil {
		return err
	}
	return tx.Where("author_id = ?", u.ID).Delete(&Post{}).Error
}
