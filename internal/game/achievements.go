package game

import "time"

// ProgressSnapshot is the well-defined view of a player's progress that
// achievement conditions are evaluated against.
type ProgressSnapshot struct {
	CitiesPurified int
	TotalEnergy    float64
	RelayCount     int
	PlayTime       time.Duration
}

// Achievement is a named milestone with a pure predicate over a progress
// snapshot. Reward is the bonus energy granted to the client on unlock.
type Achievement struct {
	ID          string
	Name        string
	Description string
	Icon        string
	Reward      float64
	Condition   func(ProgressSnapshot) bool
}

// Achievements is the fixed catalog, checked on every purification.
var Achievements = []Achievement{
	{
		ID:          "first_purify",
		Name:        "First Light",
		Description: "Complete your first purification",
		Icon:        "✨",
		Reward:      10,
		Condition:   func(s ProgressSnapshot) bool { return s.CitiesPurified >= 1 },
	},
	{
		ID:          "energy_collector",
		Name:        "Energy Collector",
		Description: "Collect 1000 energy in total",
		Icon:        "⚡",
		Reward:      50,
		Condition:   func(s ProgressSnapshot) bool { return s.TotalEnergy >= 1000 },
	},
	{
		ID:          "city_savior",
		Name:        "City Savior",
		Description: "Purify 5 different cities",
		Icon:        "🌆",
		Reward:      100,
		Condition:   func(s ProgressSnapshot) bool { return s.CitiesPurified >= 5 },
	},
	{
		ID:          "global_guardian",
		Name:        "Global Guardian",
		Description: "Purify 10 different cities",
		Icon:        "🌍",
		Reward:      200,
		Condition:   func(s ProgressSnapshot) bool { return s.CitiesPurified >= 10 },
	},
	{
		ID:          "veteran",
		Name:        "Veteran",
		Description: "Play for more than 30 minutes",
		Icon:        "🏆",
		Reward:      150,
		Condition:   func(s ProgressSnapshot) bool { return s.PlayTime > 30*time.Minute },
	},
	{
		ID:          "energy_master",
		Name:        "Energy Master",
		Description: "Collect 5000 energy in total",
		Icon:        "💎",
		Reward:      300,
		Condition:   func(s ProgressSnapshot) bool { return s.TotalEnergy >= 5000 },
	},
	{
		ID:          "relay_champion",
		Name:        "Relay Champion",
		Description: "Trigger 10 light relays",
		Icon:        "🔗",
		Reward:      250,
		Condition:   func(s ProgressSnapshot) bool { return s.RelayCount >= 10 },
	},
}

// NewlyUnlocked returns the achievements whose conditions hold for the
// snapshot and whose IDs are not in the already-unlocked list.
func NewlyUnlocked(unlocked []string, snap ProgressSnapshot) []Achievement {
	have := make(map[string]bool, len(unlocked))
	for _, id := range unlocked {
		have[id] = true
	}

	var out []Achievement
	for _, a := range Achievements {
		if have[a.ID] {
			continue
		}
		if a.Condition(snap) {
			out = append(out, a)
		}
	}
	return out
}
