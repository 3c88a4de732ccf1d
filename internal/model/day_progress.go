package model

import "time"

// DayProgress 用户每个学习日的汇总，(user_id, day) 唯一
// Day 是逻辑学习日序号，Date 是最后一次更新的自然日
// swagger:model DayProgress
type DayProgress struct {
	ID               uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID           uint      `gorm:"not null;uniqueIndex:idx_day_progress_user_day,priority:1" json:"userId"`
	Day              int       `gorm:"not null;uniqueIndex:idx_day_progress_user_day,priority:2" json:"day"`
	WordsLearned     int       `gorm:"default:0" json:"wordsLearned"`
	SentencesLearned int       `gorm:"default:0" json:"sentencesLearned"`
	CoinsEarned      int       `gorm:"default:0" json:"coinsEarned"`
	Date             string    `gorm:"size:10" json:"date"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

func (DayProgress) TableName() string {
	return "day_progress"
}
