package model

import "time"

type BadgeID string

type BadgeMetric string

const (
	MetricWords     BadgeMetric = "words"
	MetricSentences BadgeMetric = "sentences"
	MetricCoins     BadgeMetric = "coins"
	MetricLevel     BadgeMetric = "level"
	MetricStreak    BadgeMetric = "streak"
)

// Badge 静态徽章目录项，统计值达到 Threshold 即获得
type Badge struct {
	ID          BadgeID     `json:"id"`
	Name        string      `json:"name"`
	Icon        string      `json:"icon"`
	Description string      `json:"description"`
	Metric      BadgeMetric `json:"metric"`
	Threshold   int         `json:"threshold"`
}

var BadgeCatalog = []Badge{
	{ID: "first_word", Name: "First Word", Icon: "🌱", Description: "Learn your first word", Metric: MetricWords, Threshold: 1},
	{ID: "first_sentence", Name: "First Sentence", Icon: "💬", Description: "Learn your first sentence", Metric: MetricSentences, Threshold: 1},
	{ID: "word_collector", Name: "Word Collector", Icon: "📚", Description: "Learn 100 words", Metric: MetricWords, Threshold: 100},
	{ID: "sentence_master", Name: "Sentence Master", Icon: "🏅", Description: "Learn 50 sentences", Metric: MetricSentences, Threshold: 50},
	{ID: "coin_hoarder", Name: "Coin Hoarder", Icon: "💰", Description: "Earn 1000 coins", Metric: MetricCoins, Threshold: 1000},
	{ID: "level_10", Name: "Level 10", Icon: "⭐", Description: "Reach level 10", Metric: MetricLevel, Threshold: 10},
	{ID: "streak_7", Name: "One Week Streak", Icon: "🔥", Description: "Log in 7 days in a row", Metric: MetricStreak, Threshold: 7},
}

// UserBadge 已获得的徽章，只插入不删除
type UserBadge struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"-"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_user_badge,priority:1" json:"userId"`
	BadgeID   BadgeID   `gorm:"size:64;not null;uniqueIndex:idx_user_badge,priority:2" json:"badgeId"`
	EarnedAt  time.Time `json:"earnedAt"`
	CreatedAt time.Time `json:"-"`
}

func (UserBadge) TableName() string {
	return "user_badges"
}

// BadgeStatus 返回给前端的徽章视图
type BadgeStatus struct {
	Badge
	Earned     bool       `json:"earned"`
	EarnedDate *time.Time `json:"earnedDate,omitempty"`
}
