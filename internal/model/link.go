package model

import "time"

// Link is a shortened URL and its click counter.
type Link struct {
	ID          uint      `json:"-" gorm:"primaryKey"`
	ShortCode   string    `json:"shortUrl" gorm:"uniqueIndex;size:32;not null"`
	OriginalURL string    `json:"originalUrl" gorm:"size:2048;not null"`
	Clicks      uint64    `json:"clicks" gorm:"not null;default:0"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"-"`
}
