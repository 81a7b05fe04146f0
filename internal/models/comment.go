package models

// Comment is a reply attached to a post. Comments are removed together with
// their parent post via the CASCADE constraint on PostID.
type Comment struct {
	ID uint `gorm:"primaryKey" json:"id"`
	Timestamps
	Text     string `gorm:"type:text;not null" json:"text"`
	AuthorID uint   `gorm:"not null;index" json:"author_id"`
	Author   User   `gorm:"foreignKey:AuthorID" json:"author"`
	PostID   uint   `gorm:"not null;index" json:"post_id"`
	Post     *Post  `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"post,omitempty"`
}
