package config

import (
	_ "embed"
	"fmt"

	"bookmaker/domain/entities"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed badges.yaml
var badgesYAML []byte

type badgeEntry struct {
	entities.BadgeDefinition `yaml:",inline"`
	RewardAmount             string `yaml:"reward_amount"`
}

type rulesEntry struct {
	entities.AchievementRules `yaml:",inline"`
	HighStakeLossAmount       string `yaml:"high_stake_loss_amount"`
	HighStakeLossMaxOdd       string `yaml:"high_stake_loss_max_odd"`
	LongShotLossMinOdd        string `yaml:"long_shot_loss_min_odd"`
	LongShotWinMinOdd         string `yaml:"long_shot_win_min_odd"`
	LowStakeMaxAmount         string `yaml:"low_stake_max_amount"`
}

type catalogFile struct {
	Badges []badgeEntry `yaml:"badges"`
	Rules  rulesEntry   `yaml:"rules"`
}

// LoadBadgeCatalog parses the embedded badge catalog
func LoadBadgeCatalog() (*entities.BadgeCatalog, error) {
	return ParseBadgeCatalog(badgesYAML)
}

// ParseBadgeCatalog parses a badge catalog document
func ParseBadgeCatalog(data []byte) (*entities.BadgeCatalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse badge catalog: %w", err)
	}

	seen := make(map[entities.BadgeCode]bool, len(file.Badges))
	defs := make([]entities.BadgeDefinition, 0, len(file.Badges))
	for _, entry := range file.Badges {
		def := entry.BadgeDefinition
		if def.Code == "" {
			return nil, fmt.Errorf("badge entry without code")
		}
		if seen[def.Code] {
			return nil, fmt.Errorf("duplicate badge code %s", def.Code)
		}
		seen[def.Code] = true

		reward, err := decimal.NewFromString(entry.RewardAmount)
		if err != nil {
			return nil, fmt.Errorf("invalid reward_amount for %s: %w", def.Code, err)
		}
		if reward.IsNegative() {
			return nil, fmt.Errorf("negative reward_amount for %s", def.Code)
		}
		def.RewardAmount = entities.RoundMoney(reward)
		defs = append(defs, def)
	}

	rules := file.Rules.AchievementRules
	thresholds := []struct {
		key   string
		raw   string
		value *decimal.Decimal
	}{
		{"high_stake_loss_amount", file.Rules.HighStakeLossAmount, &rules.HighStakeLossAmount},
		{"high_stake_loss_max_odd", file.Rules.HighStakeLossMaxOdd, &rules.HighStakeLossMaxOdd},
		{"long_shot_loss_min_odd", file.Rules.LongShotLossMinOdd, &rules.LongShotLossMinOdd},
		{"long_shot_win_min_odd", file.Rules.LongShotWinMinOdd, &rules.LongShotWinMinOdd},
		{"low_stake_max_amount", file.Rules.LowStakeMaxAmount, &rules.LowStakeMaxAmount},
	}
	for _, th := range thresholds {
		parsed, err := decimal.NewFromString(th.raw)
		if err != nil {
			return nil, fmt.Errorf("invalid rules.%s: %w", th.key, err)
		}
		*th.value = parsed
	}

	if rules.WorkHoursStart < 0 || rules.WorkHoursEnd > 24 || rules.WorkHoursStart >= rules.WorkHoursEnd {
		return nil, fmt.Errorf("invalid work hours window %d-%d", rules.WorkHoursStart, rules.WorkHoursEnd)
	}

	return entities.NewBadgeCatalog(defs, rules), nil
}
