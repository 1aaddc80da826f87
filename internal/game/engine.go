package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"backend/internal/models"
)

// Errors surfaced by the purify transaction.
var (
	// ErrNotInitialized means one of the global records is missing and the
	// init endpoint (or seeder) has to run first.
	ErrNotInitialized = errors.New("game state not initialized")

	// ErrCityNotFound means no city matched the requested display name.
	ErrCityNotFound = errors.New("city not found")
)

const (
	defaultNickname = "Anonymous"
	nicknameMaxLen  = 40

	// The activity feed is trimmed twice: to activityPreTrim before new
	// entries are prepended and to activityKeep after. Both bounds are part
	// of the record format, not an accident.
	activityPreTrim = 50
	activityKeep    = 30
)

// PurifyInput is the validated input for one purification event.
// UserID is optional; without it all player and leaderboard bookkeeping
// is skipped.
type PurifyInput struct {
	CityName string
	Energy   float64
	UserID   string
	Nickname string
	Country  string
}

// PurifyResult describes the outcome of one purification.
type PurifyResult struct {
	CityKey       string
	CityName      string
	NewBrightness float64
	Message       string
	RelayTarget   *models.RelayTarget
	NewPlayer     bool
	FirstVisit    bool
	Unlocked      []Achievement
}

// Engine runs the purify read-modify-write transaction over the KV store.
// It holds no state between calls; every invocation loads fresh records.
// The four record writes are independent and non-atomic, so concurrent
// purifications can lose updates. That trade-off is accepted: the store
// is a plain KV layer, not a transactional database.
type Engine struct {
	store Store
	now   func() time.Time
}

// NewEngine creates a purify engine over the given store.
func NewEngine(store Store) *Engine {
	return &Engine{
		store: store,
		now:   time.Now,
	}
}

// Purify applies one purification event: updates the target city, the
// player record (when a userId is supplied), the global stats and the
// leaderboard, and selects a relay target when the city reaches full
// brightness.
func (e *Engine) Purify(ctx context.Context, in PurifyInput) (*PurifyResult, error) {
	citiesRaw, err := e.loadRequired(ctx, KeyCities)
	if err != nil {
		return nil, err
	}
	statsRaw, err := e.loadRequired(ctx, KeyStats)
	if err != nil {
		return nil, err
	}
	leaderboardRaw, err := e.loadRequired(ctx, KeyLeaderboard)
	if err != nil {
		return nil, err
	}

	var cities models.CitySet
	if err := json.Unmarshal([]byte(citiesRaw), &cities); err != nil {
		return nil, fmt.Errorf("decode %s: %w", KeyCities, err)
	}

	// Lookup is by display name, matching the stored record contract.
	cityKey, city, ok := findCityByName(cities, in.CityName)
	if !ok {
		return nil, ErrCityNotFound
	}

	energy := clampEnergy(in.Energy)
	newBrightness := math.Min(FullBrightness, city.Brightness+energy)
	nowMs := e.now().UnixMilli()

	player, newPlayer, firstVisit, err := e.updatePlayer(ctx, in, cityKey, energy, nowMs)
	if err != nil {
		return nil, err
	}

	city.Brightness = newBrightness
	city.Purifications++
	if firstVisit {
		city.Guardians++
	}
	cities[cityKey] = city

	// Relay runs over the already-updated set, so the source city never
	// re-selects itself.
	var relayTarget *models.RelayTarget
	if newBrightness >= FullBrightness {
		if target, found := SelectRelayTarget(cityKey, cities); found {
			relayTarget = &models.RelayTarget{Name: target.Name, Lat: target.Lat, Lng: target.Lng}
		}
	}

	var unlocked []Achievement
	if player != nil {
		if relayTarget != nil {
			player.RelayCount++
		}
		snap := ProgressSnapshot{
			CitiesPurified: player.CitiesPurified,
			TotalEnergy:    player.TotalEnergy,
			RelayCount:     player.RelayCount,
			PlayTime:       time.Duration(nowMs-player.JoinedAt) * time.Millisecond,
		}
		unlocked = NewlyUnlocked(player.Achievements, snap)
		for _, a := range unlocked {
			player.Achievements = append(player.Achievements, a.ID)
		}

		if err := e.putJSON(ctx, UserKey(in.UserID), player); err != nil {
			return nil, err
		}
	}

	actorID := in.UserID
	if actorID == "" {
		actorID = models.AnonymousActor
	}
	actorNick := in.Nickname
	if actorNick == "" && player != nil {
		actorNick = player.Nickname
	}
	if actorNick == "" {
		actorNick = defaultNickname
	}
	actorNick = truncate(actorNick, nicknameMaxLen)

	var stats models.GlobalStats
	if err := json.Unmarshal([]byte(statsRaw), &stats); err != nil {
		return nil, fmt.Errorf("decode %s: %w", KeyStats, err)
	}
	stats.TotalPurifications++
	stats.TotalEnergy += energy
	if newPlayer {
		stats.TotalPlayers++
	}
	stats.LastUpdate = nowMs
	stats.RecentActivities = prependActivities(stats.RecentActivities,
		buildActivities(in.CityName, actorID, actorNick, relayTarget, unlocked, nowMs))

	leaderboard, err := DecodeLeaderboard(leaderboardRaw)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", KeyLeaderboard, err)
	}
	if in.UserID != "" {
		leaderboard = upsertLeaderboard(leaderboard, in, player, actorNick, energy, nowMs)
	}

	if err := e.putJSON(ctx, KeyCities, cities); err != nil {
		return nil, err
	}
	if err := e.putJSON(ctx, KeyStats, &stats); err != nil {
		return nil, err
	}
	if err := e.putJSON(ctx, KeyLeaderboard, leaderboard); err != nil {
		return nil, err
	}

	message := fmt.Sprintf("%s brightness increased to %v%%", in.CityName, newBrightness)
	if relayTarget != nil {
		message = fmt.Sprintf("%s fully lit! Energy relayed to %s!", in.CityName, relayTarget.Name)
	}

	return &PurifyResult{
		CityKey:       cityKey,
		CityName:      in.CityName,
		NewBrightness: newBrightness,
		Message:       message,
		RelayTarget:   relayTarget,
		NewPlayer:     newPlayer,
		FirstVisit:    firstVisit,
		Unlocked:      unlocked,
	}, nil
}

// updatePlayer loads or creates the player record and applies the
// per-event bookkeeping. Returns nil without error when no userId was
// supplied. The record is persisted later, after relay selection, so the
// relay counter lands in the same write.
func (e *Engine) updatePlayer(ctx context.Context, in PurifyInput, cityKey string, energy float64, nowMs int64) (player *models.Player, newPlayer, firstVisit bool, err error) {
	if in.UserID == "" {
		return nil, false, false, nil
	}

	raw, err := e.store.Get(ctx, UserKey(in.UserID))
	switch {
	case err == nil:
		player = &models.Player{}
		if err := json.Unmarshal([]byte(raw), player); err != nil {
			return nil, false, false, fmt.Errorf("decode player %s: %w", in.UserID, err)
		}
	case errors.Is(err, ErrKeyNotFound):
		newPlayer = true
		player = &models.Player{
			UserID:     in.UserID,
			Nickname:   defaultNickname,
			Country:    in.Country,
			CitiesSeen: make(map[string]bool),
			LastActive: nowMs,
			JoinedAt:   nowMs,
		}
	default:
		return nil, false, false, fmt.Errorf("load player %s: %w", in.UserID, err)
	}

	if in.Nickname != "" {
		player.Nickname = in.Nickname
	}
	if in.Country != "" {
		player.Country = in.Country
	}
	player.TotalEnergy += energy
	player.LastActive = nowMs
	if player.CitiesSeen == nil {
		player.CitiesSeen = make(map[string]bool)
	}
	if !player.CitiesSeen[cityKey] {
		firstVisit = true
		player.CitiesSeen[cityKey] = true
		player.CitiesPurified++
	}

	return player, newPlayer, firstVisit, nil
}

// buildActivities returns the feed entries for one event, newest first:
// achievements, then the relay if one fired, then the purify itself.
func buildActivities(cityName, actorID, actorNick string, relayTarget *models.RelayTarget, unlocked []Achievement, nowMs int64) []models.Activity {
	entries := make([]models.Activity, 0, len(unlocked)+2)
	for _, a := range unlocked {
		entries = append(entries, models.Activity{
			Type:      models.ActivityAchievement,
			UserID:    actorID,
			Nickname:  actorNick,
			City:      a.Name,
			Timestamp: nowMs,
		})
	}
	if relayTarget != nil {
		entries = append(entries, models.Activity{
			Type:      models.ActivityRelay,
			UserID:    actorID,
			Nickname:  actorNick,
			City:      relayTarget.Name,
			Timestamp: nowMs,
		})
	}
	entries = append(entries, models.Activity{
		Type:      models.ActivityPurify,
		UserID:    actorID,
		Nickname:  actorNick,
		City:      cityName,
		Timestamp: nowMs,
	})
	return entries
}

// prependActivities applies the double bound: trim the existing feed to
// activityPreTrim, prepend, then keep the newest activityKeep entries.
func prependActivities(recent, entries []models.Activity) []models.Activity {
	if len(recent) > activityPreTrim {
		recent = recent[:activityPreTrim]
	}
	recent = append(entries, recent...)
	if len(recent) > activityKeep {
		recent = recent[:activityKeep]
	}
	return recent
}

// upsertLeaderboard updates the entry for the purifying player, creating
// it on first sight. At most one entry exists per userId.
func upsertLeaderboard(list []models.LeaderboardEntry, in PurifyInput, player *models.Player, actorNick string, energy float64, nowMs int64) []models.LeaderboardEntry {
	idx := -1
	for i := range list {
		if list[i].UserID == in.UserID {
			idx = i
			break
		}
	}

	var entry models.LeaderboardEntry
	if idx >= 0 {
		entry = list[idx]
	} else {
		entry = models.LeaderboardEntry{
			UserID:  in.UserID,
			Country: in.Country,
		}
	}

	entry.Nickname = actorNick
	entry.TotalEnergy += energy
	if player != nil {
		entry.CitiesPurified = player.CitiesPurified
	}
	if in.Country != "" {
		entry.Country = in.Country
	}
	entry.LastActive = nowMs

	if idx >= 0 {
		list[idx] = entry
		return list
	}
	return append(list, entry)
}

// DecodeLeaderboard accepts both record formats that have existed in the
// store: a bare entry array and a {"entries": [...]} wrapper.
func DecodeLeaderboard(raw string) ([]models.LeaderboardEntry, error) {
	var list []models.LeaderboardEntry
	if err := json.Unmarshal([]byte(raw), &list); err == nil {
		return list, nil
	}

	var wrapper struct {
		Entries []models.LeaderboardEntry `json:"entries"`
	}
	if err := json.Unmarshal([]byte(raw), &wrapper); err != nil {
		return nil, err
	}
	if wrapper.Entries == nil {
		return []models.LeaderboardEntry{}, nil
	}
	return wrapper.Entries, nil
}

// findCityByName resolves a city by display name. Keys are scanned in
// sorted order so a duplicated display name resolves deterministically.
func findCityByName(cities models.CitySet, name string) (string, models.City, bool) {
	keys := make([]string, 0, len(cities))
	for key := range cities {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if cities[key].Name == name {
			return key, cities[key], true
		}
	}
	return "", models.City{}, false
}

// clampEnergy treats non-finite energy as zero and floors the rest at zero.
func clampEnergy(energy float64) float64 {
	if math.IsNaN(energy) || math.IsInf(energy, 0) {
		return 0
	}
	return math.Max(0, energy)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

func (e *Engine) loadRequired(ctx context.Context, key string) (string, error) {
	raw, err := e.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return "", ErrNotInitialized
		}
		return "", fmt.Errorf("load %s: %w", key, err)
	}
	return raw, nil
}

func (e *Engine) putJSON(ctx context.Context, key string, value any) error {
	buf, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := e.store.Put(ctx, key, string(buf)); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}
