package model

import (
	"time"
)

// Battle is one generated rap battle between two characters.
// The audio pipeline reads BeatURL and VocalsRef and writes MixURL;
// everything else is set at creation time.
type Battle struct {
	ID           string     `json:"id" gorm:"primaryKey;size:36"`
	UserID       int64      `json:"userId" gorm:"index"`
	Character1ID string     `json:"character1Id" gorm:"size:64;not null"`
	Character2ID string     `json:"character2Id" gorm:"size:64;not null"`
	Topic        string     `json:"topic" gorm:"size:255;not null"`
	Lyrics1      string     `json:"lyricsCharacter1" gorm:"type:text"`
	Lyrics2      string     `json:"lyricsCharacter2" gorm:"type:text"`
	BeatName     string     `json:"beatName" gorm:"size:100"`
	BeatURL      string     `json:"beatUrl" gorm:"size:767"`
	VocalsRef    string     `json:"-" gorm:"type:mediumtext"` // remote URL or data URI, too large to expose in API
	MixURL       string     `json:"mixUrl,omitempty" gorm:"size:1024"`
	MixError     string     `json:"mixError,omitempty" gorm:"size:512"`
	Duration     float32    `json:"duration,omitempty"` // mixed output duration in seconds
	Winner       string     `json:"winner,omitempty" gorm:"size:64"`
	Judge1Name   string     `json:"judge1Name,omitempty" gorm:"size:100"`
	Commentary1  string     `json:"commentary1,omitempty" gorm:"type:text"`
	Judge2Name   string     `json:"judge2Name,omitempty" gorm:"size:100"`
	Commentary2  string     `json:"commentary2,omitempty" gorm:"type:text"`
	IsPublic     bool       `json:"isPublic" gorm:"default:true"`
	ViewCount    int64      `json:"viewCount" gorm:"default:0"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	ExpiresAt    *time.Time `json:"expiresAt,omitempty" gorm:"index"`
}

// TableName sets the battles table name.
func (Battle) TableName() string {
	return "battles"
}

// Expired reports whether the battle is past its retention horizon.
func (b *Battle) Expired(now time.Time) bool {
	return b.ExpiresAt != nil && b.ExpiresAt.Before(now)
}

// HasAudioSources reports whether both inputs the mix pipeline needs are present.
func (b *Battle) HasAudioSources() bool {
	return b.BeatURL != "" && b.VocalsRef != ""
}
