package entities

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BadgeCode identifies a catalog entry
type BadgeCode string

const (
	BadgeMickJagger       BadgeCode = "MICK_JAGGER"
	BadgeTitanic          BadgeCode = "TITANIC"
	BadgeVasco            BadgeCode = "VASCO"
	BadgeRobinHoodReverso BadgeCode = "ROBIN_HOOD_REVERSO"
	BadgeJulius           BadgeCode = "JULIUS"
	BadgeCltSofrido       BadgeCode = "CLT_SOFRIDO"
	BadgePrimoRico        BadgeCode = "PRIMO_RICO"
	BadgeMaeDinah         BadgeCode = "MAE_DINAH"
	BadgeInimigoDoFim     BadgeCode = "INIMIGO_DO_FIM"
	BadgeIludido          BadgeCode = "ILUDIDO"
	BadgePuxaSaco         BadgeCode = "PUXA_SACO"
	BadgeReuniaoEmail     BadgeCode = "REUNIAO_EMAIL"
	BadgeDonoDaBanca      BadgeCode = "DONO_DA_BANCA"
)

// UserBadge is a badge earned by a user
type UserBadge struct {
	UserID       uuid.UUID       `db:"user_id"`
	Code         BadgeCode       `db:"code"`
	RewardAmount decimal.Decimal `db:"reward_amount"`
	EarnedAt     time.Time       `db:"earned_at"`
}

// BadgeDefinition is the immutable catalog metadata for a badge
type BadgeDefinition struct {
	Code         BadgeCode       `yaml:"code" json:"code"`
	Title        string          `yaml:"title" json:"title"`
	Description  string          `yaml:"description" json:"description"`
	Category     string          `yaml:"category" json:"category"`
	RewardAmount decimal.Decimal `yaml:"-" json:"rewardAmount"`
}

// AchievementRules holds the thresholds the rule evaluator reads
type AchievementRules struct {
	LossStreak            int             `yaml:"loss_streak"`
	HighStakeLossAmount   decimal.Decimal `yaml:"-"`
	HighStakeLossMaxOdd   decimal.Decimal `yaml:"-"`
	LongShotLossMinOdd    decimal.Decimal `yaml:"-"`
	LongShotWinMinOdd     decimal.Decimal `yaml:"-"`
	LowStakeMaxAmount     decimal.Decimal `yaml:"-"`
	LowStakeBetCount      int             `yaml:"low_stake_bet_count"`
	WorkHoursStart        int             `yaml:"work_hours_start"`
	WorkHoursEnd          int             `yaml:"work_hours_end"`
	WorkHoursBetCount     int             `yaml:"work_hours_bet_count"`
	LastMinuteWindow      time.Duration   `yaml:"last_minute_window"`
	FlatteryTitleKeywords []string        `yaml:"flattery_title_keywords"`
	CollectorBadgeCount   int             `yaml:"collector_badge_count"`
}

// BadgeCatalog is the immutable set of badge definitions loaded at startup
type BadgeCatalog struct {
	definitions map[BadgeCode]BadgeDefinition
	order       []BadgeCode
	Rules       AchievementRules
}

// NewBadgeCatalog builds a catalog preserving the given definition order
func NewBadgeCatalog(defs []BadgeDefinition, rules AchievementRules) *BadgeCatalog {
	c := &BadgeCatalog{
		definitions: make(map[BadgeCode]BadgeDefinition, len(defs)),
		Rules:       rules,
	}
	for _, def := range defs {
		if _, exists := c.definitions[def.Code]; !exists {
			c.order = append(c.order, def.Code)
		}
		c.definitions[def.Code] = def
	}
	return c
}

// Get returns the definition for code
func (c *BadgeCatalog) Get(code BadgeCode) (BadgeDefinition, bool) {
	def, ok := c.definitions[code]
	return def, ok
}

// All returns every definition in catalog order
func (c *BadgeCatalog) All() []BadgeDefinition {
	defs := make([]BadgeDefinition, 0, len(c.order))
	for _, code := range c.order {
		defs = append(defs, c.definitions[code])
	}
	return defs
}

// BadgeSet is the set of codes a user holds
type BadgeSet map[BadgeCode]struct{}

// NewBadgeSet builds a set from earned badges
func NewBadgeSet(badges []*UserBadge) BadgeSet {
	set := make(BadgeSet, len(badges))
	for _, b := range badges {
		set[b.Code] = struct{}{}
	}
	return set
}

// Has reports whether code is held
func (s BadgeSet) Has(code BadgeCode) bool {
	_, ok := s[code]
	return ok
}

// Add records code as held
func (s BadgeSet) Add(code BadgeCode) {
	s[code] = struct{}{}
}

// CountExcluding counts held badges other than code
func (s BadgeSet) CountExcluding(code BadgeCode) int {
	n := len(s)
	if s.Has(code) {
		n--
	}
	return n
}

// SortBadgesByEarnedAt orders badges oldest first
func SortBadgesByEarnedAt(badges []*UserBadge) {
	sort.SliceStable(badges, func(i, j int) bool {
		return badges[i].EarnedAt.Before(badges[j].EarnedAt)
	})
}
