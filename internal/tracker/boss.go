package tracker

type BossStatus string

const (
	BossDefeated  BossStatus = "defeated"
	BossWeakened  BossStatus = "weakened"
	BossUntouched BossStatus = "untouched"
)

// ClassifyBoss labels a week by how many of its days have a submission.
func ClassifyBoss(completedDaysInWeek int) BossStatus {
	switch {
	case completedDaysInWeek >= 6:
		return BossDefeated
	case completedDaysInWeek >= 3:
		return BossWeakened
	default:
		return BossUntouched
	}
}
