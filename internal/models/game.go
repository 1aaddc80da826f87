package models

// Activity types recorded in the global stats feed
const (
	ActivityPurify      = "purify"
	ActivityRelay       = "relay"
	ActivityAchievement = "achievement"
)

// AnonymousActor is the actor id recorded for purifications without a userId
const AnonymousActor = "anonymous"

// City represents one node on the world map. Coordinates are fixed at
// initialization; only brightness, purifications and guardians are mutated.
type City struct {
	Name          string  `json:"name"`
	Lat           float64 `json:"lat"`
	Lng           float64 `json:"lng"`
	Brightness    float64 `json:"brightness"`
	Guardians     int     `json:"guardians,omitempty"`
	Purifications int     `json:"purifications,omitempty"`
}

// CitySet is the full city mapping stored under a single KV key.
// Keys are stable identifiers ("tokyo"), distinct from display names.
type CitySet map[string]City

// Player is the per-user progress record stored under user:<id>.
type Player struct {
	UserID         string          `json:"userId"`
	Nickname       string          `json:"nickname"`
	Country        string          `json:"country,omitempty"`
	TotalEnergy    float64         `json:"totalEnergy"`
	CitiesPurified int             `json:"citiesPurified"`
	CitiesSeen     map[string]bool `json:"citiesSeen,omitempty"`
	LastActive     int64           `json:"lastActive"`
	JoinedAt       int64           `json:"joinedAt,omitempty"`
	RelayCount     int             `json:"relayCount,omitempty"`
	Achievements   []string        `json:"achievements,omitempty"`
}

// LeaderboardEntry is the denormalized ranking record. Rank is never stored;
// it is computed when the leaderboard is read.
type LeaderboardEntry struct {
	UserID         string  `json:"userId"`
	Nickname       string  `json:"nickname"`
	TotalEnergy    float64 `json:"totalEnergy"`
	CitiesPurified int     `json:"citiesPurified"`
	Country        string  `json:"country,omitempty"`
	LastActive     int64   `json:"lastActive,omitempty"`
}

// Activity is one entry in the bounded recent-activity feed.
type Activity struct {
	Type      string `json:"type"`
	UserID    string `json:"userId"`
	Nickname  string `json:"nickname"`
	City      string `json:"city"`
	Timestamp int64  `json:"timestamp"`
}

// GlobalStats holds the global counters stored under global:stats.
type GlobalStats struct {
	TotalPurifications int        `json:"totalPurifications"`
	TotalPlayers       int        `json:"totalPlayers"`
	TotalEnergy        float64    `json:"totalEnergy"`
	LastUpdate         int64      `json:"lastUpdate"`
	RecentActivities   []Activity `json:"recentActivities,omitempty"`
}
