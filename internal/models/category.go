package models

import (
	"time"

	"gorm.io/gorm"
)

// Category is a named tag grouping communities
type Category struct {
	ID          int64   `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	CreatorID   *int64  `gorm:"index;column:creator_id" json:"creator_id"`
	Name        string  `gorm:"type:varchar(32);not null;uniqueIndex:categories_name_ux;column:name" json:"name"`
	Title       string  `gorm:"type:varchar(64);not null;column:title" json:"title"`
	Description *string `gorm:"type:varchar(64);column:description" json:"description"`
	Avatar      *string `gorm:"type:varchar(1024);column:avatar" json:"avatar"`

	// Created is written on insert only; gorm never includes it in updates
	Created time.Time `gorm:"<-:create;not null;column:created" json:"created"`

	Communities []Community `gorm:"many2many:category_communities;joinForeignKey:CategoryID;joinReferences:CommunityID" json:"-"`
}

// TableName specifies the table name for Category
func (Category) TableName() string {
	return "categories"
}

// BeforeCreate stamps Created on first save, whatever the caller set
func (c *Category) BeforeCreate(tx *gorm.DB) error {
	c.Created = tx.NowFunc()
	return nil
}
