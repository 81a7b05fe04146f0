package models

// Group is a named category a post may optionally belong to. Deleting a
// group detaches its posts (their group becomes absent) rather than deleting
// them; the SET NULL constraint lives on Post.Group.
type Group struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"not null" json:"title"`
	Slug        string `gorm:"uniqueIndex;not null" json:"slug"`
	Description string `gorm:"type:text" json:"description"`

	Posts []Post `gorm:"foreignKey:GroupID" json:"posts,omitempty"`
}
