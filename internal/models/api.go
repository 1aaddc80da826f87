package models

// PurifyRequest is the request payload for POST /api/purify.
// Energy is a pointer so a literal 0 passes validation while a missing
// field does not.
type PurifyRequest struct {
	CityName string   `json:"cityName" validate:"required"`
	Energy   *float64 `json:"energy" validate:"required"`
	UserID   string   `json:"userId,omitempty"`
	Nickname string   `json:"nickname,omitempty" validate:"omitempty,max=64"`
	Country  string   `json:"country,omitempty" validate:"omitempty,max=64"`
}

// RelayTarget names the next city to light up after a full purification.
type RelayTarget struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

// PurifyResponse is the success payload for POST /api/purify.
type PurifyResponse struct {
	Success       bool         `json:"success"`
	CityName      string       `json:"cityName"`
	NewBrightness float64      `json:"newBrightness"`
	Message       string       `json:"message"`
	RelayTarget   *RelayTarget `json:"relayTarget,omitempty"`
	Achievements  []string     `json:"achievements,omitempty"`
}

// CityStatus is one city in the GET /api/status payload.
type CityStatus struct {
	Name       string  `json:"name"`
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
	Brightness float64 `json:"brightness"`
	Guardians  int     `json:"guardians"`
}

// StatusResponse is the GET /api/status payload.
type StatusResponse struct {
	Timestamp       int64        `json:"timestamp"`
	Cities          []CityStatus `json:"cities"`
	TotalBrightness int          `json:"totalBrightness"`
}

// MostActiveCity pairs a city name with its purification count.
type MostActiveCity struct {
	Name          string `json:"name"`
	Purifications int    `json:"purifications"`
}

// StatsResponse is the GET /api/stats payload.
type StatsResponse struct {
	TotalPlayers         int              `json:"totalPlayers"`
	TotalEnergyCollected float64          `json:"totalEnergyCollected"`
	TotalPurifications   int              `json:"totalPurifications"`
	AverageBrightness    int              `json:"averageBrightness"`
	MostActiveCities     []MostActiveCity `json:"mostActiveCities"`
	RecentActivities     []Activity       `json:"recentActivities"`
}

// RankedEntry is a leaderboard entry with its read-time rank.
type RankedEntry struct {
	Rank           int     `json:"rank"`
	UserID         string  `json:"userId"`
	Nickname       string  `json:"nickname"`
	TotalEnergy    float64 `json:"totalEnergy"`
	CitiesPurified int     `json:"citiesPurified"`
	Country        string  `json:"country"`
}

// LeaderboardResponse is the GET /api/leaderboard payload.
type LeaderboardResponse struct {
	Timestamp int64         `json:"timestamp"`
	Entries   []RankedEntry `json:"entries"`
}

// AnalyticsEvent is a single client-side event in an analytics batch.
type AnalyticsEvent struct {
	Category  string  `json:"category" validate:"required,max=64"`
	Action    string  `json:"action" validate:"required,max=64"`
	Label     string  `json:"label,omitempty" validate:"omitempty,max=128"`
	Value     float64 `json:"value,omitempty"`
	Timestamp int64   `json:"timestamp"`
}

// AnalyticsRequest is the POST /api/analytics payload.
type AnalyticsRequest struct {
	SessionID string           `json:"sessionId" validate:"omitempty,max=128"`
	Events    []AnalyticsEvent `json:"events" validate:"required,min=1,max=100,dive"`
}

// AnalyticsResponse acknowledges an accepted analytics batch.
type AnalyticsResponse struct {
	Success         bool   `json:"success"`
	Message         string `json:"message"`
	EventsProcessed int    `json:"eventsProcessed"`
}

// InitResponse reports the result of POST /api/init.
type InitResponse struct {
	Status      string `json:"status"`
	Message     string `json:"message"`
	CitiesCount int    `json:"citiesCount,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
