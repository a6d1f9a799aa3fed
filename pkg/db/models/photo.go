package models

// Photo is an uploaded image owned by a user. Uploads are handled elsewhere.
type Photo struct {
	ID          int64   `gorm:"column:photo_id;primaryKey;autoIncrement"`
	UserID      int64   `gorm:"column:user_id;not null"`
	ImageURL    string  `gorm:"column:image_url;not null"`
	Description *string `gorm:"column:description"`
}

func (Photo) TableName() string { return "photos" }
