package models

// Post is an authored text entry, optionally illustrated and optionally
// filed under a group. The author is set once at creation and never changes.
type Post struct {
	ID uint `gorm:"primaryKey" json:"id"`
	Timestamps
	Text     string `gorm:"type:text;not null" json:"text"`
	Image    string `json:"image,omitempty"`
	AuthorID uint   `gorm:"not null;index" json:"author_id"`
	Author   User   `gorm:"foreignKey:AuthorID" json:"author"`
	GroupID  *uint  `gorm:"index" json:"group_id,omitempty"`
	Group    *Group `gorm:"foreignKey:GroupID;constraint:OnDelete:SET NULL" json:"group,omitempty"`

	Comments []Comment `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"comments,omitempty"`
}
