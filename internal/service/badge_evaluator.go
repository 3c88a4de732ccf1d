package service

import (
	"kiriboka_backend/internal/model"
)

func metricValue(stats *model.UserStats, metric model.BadgeMetric) int {
	switch metric {
	case model.MetricWords:
		return stats.TotalWordsLearned
	case model.MetricSentences:
		return stats.TotalSentencesLearned
	case model.MetricCoins:
		return stats.TotalCoins
	case model.MetricLevel:
		return stats.CurrentLevel
	case model.MetricStreak:
		return stats.Streak
	}
	return 0
}

// EvaluateBadges 返回 stats 满足阈值的全部徽章，顺序与 BadgeCatalog 一致。
// 已获得的徽章由存储层保证不会被撤销。
func EvaluateBadges(stats *model.UserStats) []model.BadgeID {
	var ids []model.BadgeID
	for _, b := range model.BadgeCatalog {
		if metricValue(stats, b.Metric) >= b.Threshold {
			ids = append(ids, b.ID)
		}
	}
	return ids
}

// BadgeStatuses 将已获得的徽章合并到完整目录中
func BadgeStatuses(earned []model.UserBadge) []model.BadgeStatus {
	byID := make(map[model.BadgeID]model.UserBadge, len(earned))
	for _, e := range earned {
		byID[e.BadgeID] = e
	}

	statuses := make([]model.BadgeStatus, 0, len(model.BadgeCatalog))
	for _, b := range model.BadgeCatalog {
		st := model.BadgeStatus{Badge: b}
		if e, ok := byID[b.ID]; ok {
			earnedAt := e.EarnedAt
			st.Earned = true
			st.EarnedDate = &earnedAt
		}
		statuses = append(statuses, st)
	}
	return statuses
}
