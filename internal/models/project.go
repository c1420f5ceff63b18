package models

// Project is a construction project that owns cost and compensation entries.
type Project struct {
	Base
	Slug        string `gorm:"size:191;not null;uniqueIndex" json:"slug"`
	Name        string `gorm:"size:255;not null" json:"name"`
	Description string `gorm:"type:text" json:"description,omitempty"`
}
