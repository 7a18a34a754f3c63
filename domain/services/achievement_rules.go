package services

import (
	"strings"
	"time"

	"bookmaker/domain/entities"

	"github.com/google/uuid"
)

// AchievementSnapshot is everything the rules may look at for one settled bet
type AchievementSnapshot struct {
	Bet        *entities.Bet
	EventTitle string
	// UserBets is the owner's full history, newest first
	UserBets      []*entities.Bet
	Held          entities.BadgeSet
	CommenceTimes map[uuid.UUID]time.Time
	// Now carries the business timezone
	Now time.Time
}

// AchievementRule awards Code when Qualifies holds
type AchievementRule struct {
	Code      entities.BadgeCode
	Qualifies func(rules entities.AchievementRules, snap *AchievementSnapshot) bool
}

// AchievementRules returns the per-bet rules in evaluation order. The
// collector badge is not included since it depends on what these award.
func AchievementRules() []AchievementRule {
	return []AchievementRule{
		{Code: entities.BadgeMickJagger, Qualifies: qualifiesLossStreak},
		{Code: entities.BadgeRobinHoodReverso, Qualifies: qualifiesHighStakeLoss},
		{Code: entities.BadgeIludido, Qualifies: qualifiesLongShotLoss},
		{Code: entities.BadgeMaeDinah, Qualifies: qualifiesLongShotWin},
		{Code: entities.BadgePuxaSaco, Qualifies: qualifiesFlattery},
		{Code: entities.BadgeJulius, Qualifies: qualifiesLowStakes},
		{Code: entities.BadgeInimigoDoFim, Qualifies: qualifiesLastMinute},
		{Code: entities.BadgeReuniaoEmail, Qualifies: qualifiesWorkHours},
	}
}

func qualifiesLossStreak(rules entities.AchievementRules, snap *AchievementSnapshot) bool {
	if snap.Bet.Status != entities.BetStatusLost || rules.LossStreak <= 0 {
		return false
	}
	streak := 0
	for _, bet := range snap.UserBets {
		switch bet.Status {
		case entities.BetStatusLost:
			streak++
			if streak >= rules.LossStreak {
				return true
			}
		case entities.BetStatusWon:
			return false
		}
	}
	return false
}

func qualifiesHighStakeLoss(rules entities.AchievementRules, snap *AchievementSnapshot) bool {
	bet := snap.Bet
	return bet.Status == entities.BetStatusLost &&
		bet.Amount.GreaterThan(rules.HighStakeLossAmount) &&
		bet.TotalOdd.LessThan(rules.HighStakeLossMaxOdd)
}

func qualifiesLongShotLoss(rules entities.AchievementRules, snap *AchievementSnapshot) bool {
	return snap.Bet.Status == entities.BetStatusLost && snap.Bet.TotalOdd.GreaterThan(rules.LongShotLossMinOdd)
}

func qualifiesLongShotWin(rules entities.AchievementRules, snap *AchievementSnapshot) bool {
	return snap.Bet.Status == entities.BetStatusWon && snap.Bet.TotalOdd.GreaterThanOrEqual(rules.LongShotWinMinOdd)
}

func qualifiesFlattery(rules entities.AchievementRules, snap *AchievementSnapshot) bool {
	if snap.Bet.Status != entities.BetStatusWon || snap.EventTitle == "" {
		return false
	}
	title := strings.ToLower(snap.EventTitle)
	for _, keyword := range rules.FlatteryTitleKeywords {
		if keyword != "" && strings.Contains(title, strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}

func qualifiesLowStakes(rules entities.AchievementRules, snap *AchievementSnapshot) bool {
	if rules.LowStakeBetCount <= 0 {
		return false
	}
	count := 0
	for _, bet := range snap.UserBets {
		if bet.Amount.LessThanOrEqual(rules.LowStakeMaxAmount) {
			count++
		}
	}
	return count >= rules.LowStakeBetCount
}

// qualifiesLastMinute looks for a leg placed shortly before its event started
func qualifiesLastMinute(rules entities.AchievementRules, snap *AchievementSnapshot) bool {
	if rules.LastMinuteWindow <= 0 {
		return false
	}
	for _, leg := range snap.Bet.Legs {
		commence, ok := snap.CommenceTimes[leg.EventID]
		if !ok {
			continue
		}
		lead := commence.Sub(snap.Bet.CreatedAt)
		if lead > 0 && lead < rules.LastMinuteWindow {
			return true
		}
	}
	return false
}

func qualifiesWorkHours(rules entities.AchievementRules, snap *AchievementSnapshot) bool {
	if rules.WorkHoursBetCount <= 0 {
		return false
	}
	now := snap.Now
	if now.Weekday() == time.Saturday || now.Weekday() == time.Sunday {
		return false
	}

	loc := now.Location()
	year, month, day := now.Date()
	start := time.Date(year, month, day, rules.WorkHoursStart, 0, 0, 0, loc)
	end := time.Date(year, month, day, rules.WorkHoursEnd, 0, 0, 0, loc)

	count := 0
	for _, bet := range snap.UserBets {
		placed := bet.CreatedAt.In(loc)
		if !placed.Before(start) && placed.Before(end) {
			count++
		}
	}
	return count >= rules.WorkHoursBetCount
}

// qualifiesCollector reports whether enough other badges are held
func qualifiesCollector(rules entities.AchievementRules, held entities.BadgeSet) bool {
	if held.Has(entities.BadgeDonoDaBanca) || rules.CollectorBadgeCount <= 0 {
		return false
	}
	return held.CountExcluding(entities.BadgeDonoDaBanca) >= rules.CollectorBadgeCount
}
