package model

import "time"

const CoinsPerLevel = 100

// UserStats 每个用户一行的累计统计
// swagger:model UserStats
type UserStats struct {
	ID                    uint      `gorm:"primaryKey;autoIncrement" json:"-"`
	UserID                uint      `gorm:"uniqueIndex;not null" json:"userId"`
	TotalWordsLearned     int       `gorm:"default:0" json:"totalWordsLearned"`
	TotalSentencesLearned int       `gorm:"default:0" json:"totalSentencesLearned"`
	TotalCoins            int       `gorm:"index;default:0" json:"totalCoins"`
	CurrentLevel          int       `gorm:"default:1" json:"currentLevel"`
	Streak                int       `gorm:"default:0" json:"streak"`
	LastLoginDate         string    `gorm:"size:10" json:"lastLoginDate"`
	CurrentDay            int       `gorm:"default:1" json:"currentDay"`
	CreatedAt             time.Time `json:"createdAt"`
	UpdatedAt             time.Time `json:"updatedAt"`
}

func (UserStats) TableName() string {
	return "user_stats"
}

func NewUserStats(userID uint) *UserStats {
	return &UserStats{UserID: userID, CurrentLevel: 1, CurrentDay: 1}
}

// LevelForCoins 等级 = floor(coins/100) + 1
func LevelForCoins(coins int) int {
	if coins < 0 {
		coins = 0
	}
	return coins/CoinsPerLevel + 1
}

// AddLearned 累加一次学习奖励并重新计算等级
func (s *UserStats) AddLearned(kind ItemKind, coins int) {
	switch kind {
	case KindWord:
		s.TotalWordsLearned++
	case KindSentence:
		s.TotalSentencesLearned++
	}
	s.TotalCoins += coins
	s.CurrentLevel = LevelForCoins(s.TotalCoins)
}
