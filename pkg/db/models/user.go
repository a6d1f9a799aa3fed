package models

import "time"

// User is the account a cart and its orders belong to.
type User struct {
	ID        int64     `gorm:"column:user_id;primaryKey;autoIncrement"`
	Name      string    `gorm:"column:name;not null"`
	Email     string    `gorm:"column:email;not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (User) TableName() string { return "users" }
