package services

import (
	"errors"
	"fmt"
	"os"

	"pie-progression/models"

	"gopkg.in/yaml.v3"
)

// DefaultXPValues: XP per action when the caller gives no custom amount
var DefaultXPValues = map[models.EventType]int64{
	models.EventPostCreated:        50,
	models.EventCommentAdded:       10,
	models.EventLikeGiven:          2,
	models.EventLikeReceived:       5,
	models.EventFollowGiven:        5,
	models.EventFollowReceived:     10,
	models.EventChallengeCompleted: 100,
	models.EventAchievementUnlock:  100,
	models.EventBadgeEarned:        50,
	models.EventLoginStreak:        15,
	models.EventFirstPost:          25,
	models.EventFirstComment:       15,
	models.EventCommunityJoined:    20,
	models.EventRoomCreated:        30,
	models.EventRoomParticipated:   10,
	models.EventFusionContributed:  40,
}

// DefaultLevelThresholds[N-1] is the cumulative XP needed for level N.
var DefaultLevelThresholds = []int64{
	0, 100, 300, 600, 1000, 1500, 2100, 2800, 3600, 4500,
	5500, 6600, 7800, 9100, 10500, 12000, 13600, 15300, 17100, 19000,
}

// DefaultLevelIncrement extends the table linearly past its last level.
const DefaultLevelIncrement int64 = 2000

// DefaultRequirements maps the events that advance challenges to a requirement key.
var DefaultRequirements = map[models.EventType]string{
	models.EventPostCreated:       "create_posts",
	models.EventCommentAdded:      "add_comments",
	models.EventLikeGiven:         "give_likes",
	models.EventFollowGiven:       "follow_users",
	models.EventCommunityJoined:   "join_communities",
	models.EventRoomParticipated:  "join_rooms",
	models.EventRoomCreated:       "create_rooms",
	models.EventFusionContributed: "contribute_fusions",
}

// DefaultLevelAchievements: level reached -> achievement name
var DefaultLevelAchievements = map[int]string{
	5:  "Rising Star",
	10: "Established Member",
	15: "Community Pillar",
	20: "Legend",
}

// Rules bundles every static table the engine consults.
type Rules struct {
	XPValues          map[models.EventType]int64
	Levels            LevelTable
	Requirements      map[models.EventType]string
	LevelAchievements map[int]string
}

// DefaultRules returns a private copy of the built-in tables.
func DefaultRules() *Rules {
	r := &Rules{
		XPValues:          make(map[models.EventType]int64, len(DefaultXPValues)),
		Levels:            LevelTable{Thresholds: append([]int64(nil), DefaultLevelThresholds...), Increment: DefaultLevelIncrement},
		Requirements:      make(map[models.EventType]string, len(DefaultRequirements)),
		LevelAchievements: make(map[int]string, len(DefaultLevelAchievements)),
	}
	for k, v := range DefaultXPValues {
		r.XPValues[k] = v
	}
	for k, v := range DefaultRequirements {
		r.Requirements[k] = v
	}
	for k, v := range DefaultLevelAchievements {
		r.LevelAchievements[k] = v
	}
	return r
}

func (r *Rules) Validate() error {
	if err := r.Levels.Validate(); err != nil {
		return err
	}
	for event, xp := range r.XPValues {
		if xp < 0 {
			return fmt.Errorf("xp value for %s is negative", event)
		}
	}
	for level := range r.LevelAchievements {
		if level < 2 {
			return fmt.Errorf("level achievement at level %d can never trigger", level)
		}
	}
	return nil
}

type rulesFile struct {
	XPValues          map[string]int64  `yaml:"xp_values"`
	LevelThresholds   []int64           `yaml:"level_thresholds"`
	LevelIncrement    int64             `yaml:"level_increment"`
	Requirements      map[string]string `yaml:"requirements"`
	LevelAchievements map[int]string    `yaml:"level_achievements"`
}

// LoadRules overlays a YAML rules file on the defaults. An empty path yields the defaults.
func LoadRules(path string) (*Rules, error) {
	rules := DefaultRules()
	if path == "" {
		return rules, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	return ParseRules(raw)
}

// ParseRules overlays YAML-encoded rules on the defaults.
func ParseRules(raw []byte) (*Rules, error) {
	rules := DefaultRules()

	var f rulesFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse rules file: %w", err)
	}
	for event, xp := range f.XPValues {
		rules.XPValues[models.EventType(event)] = xp
	}
	if len(f.LevelThresholds) > 0 {
		rules.Levels.Thresholds = f.LevelThresholds
	}
	if f.LevelIncrement != 0 {
		rules.Levels.Increment = f.LevelIncrement
	}
	for event, requirement := range f.Requirements {
		if requirement == "" {
			delete(rules.Requirements, models.EventType(event))
			continue
		}
		rules.Requirements[models.EventType(event)] = requirement
	}
	for level, name := range f.LevelAchievements {
		rules.LevelAchievements[level] = name
	}

	if err := rules.Validate(); err != nil {
		return nil, errors.Join(ErrInvalidRules, err)
	}
	return rules, nil
}
