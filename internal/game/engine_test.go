package game

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"testing"
	"time"

	"backend/internal/models"
)

// memStore is an in-memory Store for engine tests.
type memStore struct {
	data map[string]string
	puts int
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string]string)}
}

func (m *memStore) Get(_ context.Context, key string) (string, error) {
	v, ok := m.data[key]
	if !ok {
		return "", fmt.Errorf("%s: %w", key, ErrKeyNotFound)
	}
	return v, nil
}

func (m *memStore) Put(_ context.Context, key, value string) error {
	m.puts++
	m.data[key] = value
	return nil
}

func seedStore(t *testing.T, cities models.CitySet) *memStore {
	t.Helper()
	m := newMemStore()
	citiesJSON, err := json.Marshal(cities)
	if err != nil {
		t.Fatalf("marshal cities: %v", err)
	}
	statsJSON, err := json.Marshal(models.GlobalStats{})
	if err != nil {
		t.Fatalf("marshal stats: %v", err)
	}
	m.data[KeyCities] = string(citiesJSON)
	m.data[KeyStats] = string(statsJSON)
	m.data[KeyLeaderboard] = "[]"
	m.puts = 0
	return m
}

func testEngine(m *memStore) *Engine {
	e := NewEngine(m)
	e.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return e
}

func storedCities(t *testing.T, m *memStore) models.CitySet {
	t.Helper()
	var cities models.CitySet
	if err := json.Unmarshal([]byte(m.data[KeyCities]), &cities); err != nil {
		t.Fatalf("unmarshal cities: %v", err)
	}
	return cities
}

func storedStats(t *testing.T, m *memStore) models.GlobalStats {
	t.Helper()
	var stats models.GlobalStats
	if err := json.Unmarshal([]byte(m.data[KeyStats]), &stats); err != nil {
		t.Fatalf("unmarshal stats: %v", err)
	}
	return stats
}

func storedLeaderboard(t *testing.T, m *memStore) []models.LeaderboardEntry {
	t.Helper()
	list, err := DecodeLeaderboard(m.data[KeyLeaderboard])
	if err != nil {
		t.Fatalf("decode leaderboard: %v", err)
	}
	return list
}

func storedPlayer(t *testing.T, m *memStore, userID string) models.Player {
	t.Helper()
	raw, ok := m.data[UserKey(userID)]
	if !ok {
		t.Fatalf("player %s not stored", userID)
	}
	var p models.Player
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("unmarshal player: %v", err)
	}
	return p
}

func worldPair() models.CitySet {
	return models.CitySet{
		"tokyo": {Name: "Tokyo", Lat: 35.6762, Lng: 139.6503, Brightness: 60},
		"osaka": {Name: "Osaka", Lat: 34.6937, Lng: 135.5023, Brightness: 30},
	}
}

func TestPurifyIncreasesBrightness(t *testing.T) {
	m := seedStore(t, worldPair())
	e := testEngine(m)

	result, err := e.Purify(context.Background(), PurifyInput{CityName: "Tokyo", Energy: 15})
	if err != nil {
		t.Fatalf("purify: %v", err)
	}
	if result.NewBrightness != 75 {
		t.Fatalf("newBrightness = %f, want 75", result.NewBrightness)
	}

	cities := storedCities(t, m)
	if cities["tokyo"].Brightness != 75 {
		t.Errorf("stored brightness = %f, want 75", cities["tokyo"].Brightness)
	}
	if cities["tokyo"].Purifications != 1 {
		t.Errorf("purifications = %d, want 1", cities["tokyo"].Purifications)
	}

	stats := storedStats(t, m)
	if stats.TotalPurifications != 1 {
		t.Errorf("totalPurifications = %d, want 1", stats.TotalPurifications)
	}
	if stats.TotalEnergy != 15 {
		t.Errorf("totalEnergy = %f, want 15", stats.TotalEnergy)
	}
}

func TestPurifyClampsBrightnessAt100(t *testing.T) {
	m := seedStore(t, worldPair())
	e := testEngine(m)

	result, err := e.Purify(context.Background(), PurifyInput{CityName: "Tokyo", Energy: 500})
	if err != nil {
		t.Fatalf("purify: %v", err)
	}
	if result.NewBrightness != 100 {
		t.Fatalf("newBrightness = %f, want 100", result.NewBrightness)
	}
}

func TestPurifyEnergyClamping(t *testing.T) {
	tests := []struct {
		name   string
		energy float64
	}{
		{"negative", -50},
		{"nan", math.NaN()},
		{"positive-inf", math.Inf(1)},
		{"negative-inf", math.Inf(-1)},
	}

	for _, tt := range tests {
		m := seedStore(t, worldPair())
		e := testEngine(m)

		result, err := e.Purify(context.Background(), PurifyInput{CityName: "Tokyo", Energy: tt.energy})
		if err != nil {
			t.Fatalf("%s: purify: %v", tt.name, err)
		}
		if result.NewBrightness != 60 {
			t.Errorf("%s: newBrightness = %f, want 60 (energy treated as 0)", tt.name, result.NewBrightness)
		}

		stats := storedStats(t, m)
		if stats.TotalEnergy != 0 {
			t.Errorf("%s: totalEnergy = %f, want 0", tt.name, stats.TotalEnergy)
		}
		if stats.TotalPurifications != 1 {
			t.Errorf("%s: totalPurifications = %d, want 1", tt.name, stats.TotalPurifications)
		}
	}
}

func TestPurifyZeroEnergyStillCountsEvent(t *testing.T) {
	m := seedStore(t, worldPair())
	e := testEngine(m)

	result, err := e.Purify(context.Background(), PurifyInput{CityName: "Tokyo", Energy: 0})
	if err != nil {
		t.Fatalf("purify: %v", err)
	}
	if result.NewBrightness != 60 {
		t.Fatalf("newBrightness = %f, want 60", result.NewBrightness)
	}

	cities := storedCities(t, m)
	if cities["tokyo"].Purifications != 1 {
		t.Errorf("purifications = %d, want 1", cities["tokyo"].Purifications)
	}
	if got := storedStats(t, m).TotalPurifications; got != 1 {
		t.Errorf("totalPurifications = %d, want 1", got)
	}
}

func TestPurifyUnknownCityWritesNothing(t *testing.T) {
	m := seedStore(t, worldPair())
	e := testEngine(m)

	_, err := e.Purify(context.Background(), PurifyInput{CityName: "Atlantis", Energy: 10})
	if err != ErrCityNotFound {
		t.Fatalf("err = %v, want ErrCityNotFound", err)
	}
	if m.puts != 0 {
		t.Fatalf("store writes = %d, want 0", m.puts)
	}
}

func TestPurifyNotInitialized(t *testing.T) {
	e := testEngine(newMemStore())

	_, err := e.Purify(context.Background(), PurifyInput{CityName: "Tokyo", Energy: 10})
	if err != ErrNotInitialized {
		t.Fatalf("err = %v, want ErrNotInitialized", err)
	}
}

func TestFirstVisitCreditsGuardianExactlyOnce(t *testing.T) {
	m := seedStore(t, worldPair())
	e := testEngine(m)
	ctx := context.Background()

	if _, err := e.Purify(ctx, PurifyInput{CityName: "Tokyo", Energy: 10, UserID: "u1", Nickname: "Alice"}); err != nil {
		t.Fatalf("first purify: %v", err)
	}

	cities := storedCities(t, m)
	if cities["tokyo"].Guardians != 1 {
		t.Fatalf("guardians after first visit = %d, want 1", cities["tokyo"].Guardians)
	}
	if p := storedPlayer(t, m, "u1"); p.CitiesPurified != 1 {
		t.Fatalf("citiesPurified after first visit = %d, want 1", p.CitiesPurified)
	}

	if _, err := e.Purify(ctx, PurifyInput{CityName: "Tokyo", Energy: 10, UserID: "u1", Nickname: "Alice"}); err != nil {
		t.Fatalf("second purify: %v", err)
	}

	cities = storedCities(t, m)
	if cities["tokyo"].Guardians != 1 {
		t.Errorf("guardians after repeat visit = %d, want 1", cities["tokyo"].Guardians)
	}
	p := storedPlayer(t, m, "u1")
	if p.CitiesPurified != 1 {
		t.Errorf("citiesPurified after repeat visit = %d, want 1", p.CitiesPurified)
	}
	if p.TotalEnergy != 20 {
		t.Errorf("totalEnergy = %f, want 20 (additive)", p.TotalEnergy)
	}
	if cities["tokyo"].Purifications != 2 {
		t.Errorf("purifications = %d, want 2", cities["tokyo"].Purifications)
	}
}

func TestRepeatPurifySameCityCounters(t *testing.T) {
	// Two purifies of 50 each: citiesPurified stays 1, totalEnergy reaches
	// 100, city purifications reach 2.
	m := seedStore(t, models.CitySet{
		"tokyo": {Name: "Tokyo", Lat: 35.6762, Lng: 139.6503, Brightness: 0},
		"osaka": {Name: "Osaka", Lat: 34.6937, Lng: 135.5023, Brightness: 0},
	})
	e := testEngine(m)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := e.Purify(ctx, PurifyInput{CityName: "Tokyo", Energy: 50, UserID: "u1"}); err != nil {
			t.Fatalf("purify %d: %v", i+1, err)
		}
	}

	p := storedPlayer(t, m, "u1")
	if p.CitiesPurified != 1 {
		t.Errorf("citiesPurified = %d, want 1", p.CitiesPurified)
	}
	if p.TotalEnergy != 100 {
		t.Errorf("totalEnergy = %f, want 100", p.TotalEnergy)
	}
	if got := storedCities(t, m)["tokyo"].Purifications; got != 2 {
		t.Errorf("purifications = %d, want 2", got)
	}
}

func TestNewPlayerIncrementsTotalPlayersOnce(t *testing.T) {
	m := seedStore(t, worldPair())
	e := testEngine(m)
	ctx := context.Background()

	if _, err := e.Purify(ctx, PurifyInput{CityName: "Tokyo", Energy: 5, UserID: "u1"}); err != nil {
		t.Fatalf("purify: %v", err)
	}
	if got := storedStats(t, m).TotalPlayers; got != 1 {
		t.Fatalf("totalPlayers = %d, want 1", got)
	}

	if _, err := e.Purify(ctx, PurifyInput{CityName: "Tokyo", Energy: 5, UserID: "u1"}); err != nil {
		t.Fatalf("purify: %v", err)
	}
	if got := storedStats(t, m).TotalPlayers; got != 1 {
		t.Errorf("totalPlayers after repeat = %d, want 1", got)
	}

	if _, err := e.Purify(ctx, PurifyInput{CityName: "Tokyo", Energy: 5, UserID: "u2"}); err != nil {
		t.Fatalf("purify: %v", err)
	}
	if got := storedStats(t, m).TotalPlayers; got != 2 {
		t.Errorf("totalPlayers after second player = %d, want 2", got)
	}
}

func TestAnonymousPurifySkipsPlayerBookkeeping(t *testing.T) {
	m := seedStore(t, worldPair())
	e := testEngine(m)

	if _, err := e.Purify(context.Background(), PurifyInput{CityName: "Tokyo", Energy: 10}); err != nil {
		t.Fatalf("purify: %v", err)
	}

	if _, ok := m.data[UserKey("")]; ok {
		t.Error("player record written for anonymous purify")
	}
	if got := len(storedLeaderboard(t, m)); got != 0 {
		t.Errorf("leaderboard entries = %d, want 0", got)
	}
	if got := storedCities(t, m)["tokyo"].Guardians; got != 0 {
		t.Errorf("guardians = %d, want 0", got)
	}

	stats := storedStats(t, m)
	if len(stats.RecentActivities) != 1 {
		t.Fatalf("activities = %d, want 1", len(stats.RecentActivities))
	}
	if stats.RecentActivities[0].UserID != models.AnonymousActor {
		t.Errorf("activity actor = %q, want %q", stats.RecentActivities[0].UserID, models.AnonymousActor)
	}
}

func TestTokyoRelayScenario(t *testing.T) {
	m := seedStore(t, models.CitySet{
		"tokyo":   {Name: "Tokyo", Lat: 35.6762, Lng: 139.6503, Brightness: 60},
		"osaka":   {Name: "Osaka", Lat: 34.6937, Lng: 135.5023, Brightness: 30},
		"seoul":   {Name: "Seoul", Lat: 37.5665, Lng: 126.9780, Brightness: 50},
		"newyork": {Name: "New York", Lat: 40.7128, Lng: -74.0060, Brightness: 10},
	})
	e := testEngine(m)

	result, err := e.Purify(context.Background(), PurifyInput{
		CityName: "Tokyo", Energy: 150, UserID: "u1", Nickname: "Alice",
	})
	if err != nil {
		t.Fatalf("purify: %v", err)
	}

	if result.NewBrightness != 100 {
		t.Fatalf("newBrightness = %f, want 100", result.NewBrightness)
	}
	if result.RelayTarget == nil {
		t.Fatal("expected relay target")
	}
	if result.RelayTarget.Name != "Osaka" {
		t.Errorf("relay target = %q, want Osaka (nearest unlit)", result.RelayTarget.Name)
	}
	want := "Tokyo fully lit! Energy relayed to Osaka!"
	if result.Message != want {
		t.Errorf("message = %q, want %q", result.Message, want)
	}
	if p := storedPlayer(t, m, "u1"); p.RelayCount != 1 {
		t.Errorf("relayCount = %d, want 1", p.RelayCount)
	}

	var relaySeen bool
	for _, a := range storedStats(t, m).RecentActivities {
		if a.Type == models.ActivityRelay && a.City == "Osaka" {
			relaySeen = true
		}
	}
	if !relaySeen {
		t.Error("expected a relay activity naming Osaka")
	}
}

func TestRelayNoneWhenAllOthersLit(t *testing.T) {
	m := seedStore(t, models.CitySet{
		"tokyo": {Name: "Tokyo", Lat: 35.6762, Lng: 139.6503, Brightness: 90},
		"osaka": {Name: "Osaka", Lat: 34.6937, Lng: 135.5023, Brightness: 100},
	})
	e := testEngine(m)

	result, err := e.Purify(context.Background(), PurifyInput{CityName: "Tokyo", Energy: 20})
	if err != nil {
		t.Fatalf("purify: %v", err)
	}
	if result.NewBrightness != 100 {
		t.Fatalf("newBrightness = %f, want 100", result.NewBrightness)
	}
	if result.RelayTarget != nil {
		t.Fatalf("relay target = %+v, want none", result.RelayTarget)
	}
	want := "Tokyo brightness increased to 100%"
	if result.Message != want {
		t.Errorf("message = %q, want %q", result.Message, want)
	}
}

func TestLeaderboardSingleEntryPerUser(t *testing.T) {
	m := seedStore(t, models.CitySet{
		"tokyo": {Name: "Tokyo", Lat: 35.6762, Lng: 139.6503, Brightness: 0},
		"osaka": {Name: "Osaka", Lat: 34.6937, Lng: 135.5023, Brightness: 0},
	})
	e := testEngine(m)
	ctx := context.Background()

	for _, city := range []string{"Tokyo", "Osaka", "Tokyo"} {
		if _, err := e.Purify(ctx, PurifyInput{CityName: city, Energy: 10, UserID: "u1", Nickname: "Alice"}); err != nil {
			t.Fatalf("purify %s: %v", city, err)
		}
	}

	list := storedLeaderboard(t, m)
	if len(list) != 1 {
		t.Fatalf("leaderboard entries = %d, want 1", len(list))
	}
	entry := list[0]
	if entry.TotalEnergy != 30 {
		t.Errorf("totalEnergy = %f, want 30", entry.TotalEnergy)
	}
	if entry.CitiesPurified != 2 {
		t.Errorf("citiesPurified = %d, want 2", entry.CitiesPurified)
	}
	if entry.Nickname != "Alice" {
		t.Errorf("nickname = %q, want Alice", entry.Nickname)
	}
}

func TestLeaderboardWrapperFormatAccepted(t *testing.T) {
	m := seedStore(t, worldPair())
	m.data[KeyLeaderboard] = `{"entries":[{"userId":"u9","nickname":"Old","totalEnergy":5,"citiesPurified":1}]}`
	e := testEngine(m)

	if _, err := e.Purify(context.Background(), PurifyInput{CityName: "Tokyo", Energy: 10, UserID: "u9", Nickname: "Old"}); err != nil {
		t.Fatalf("purify: %v", err)
	}

	list := storedLeaderboard(t, m)
	if len(list) != 1 {
		t.Fatalf("leaderboard entries = %d, want 1", len(list))
	}
	if list[0].TotalEnergy != 15 {
		t.Errorf("totalEnergy = %f, want 15", list[0].TotalEnergy)
	}
}

func TestActivityFeedDoubleTrim(t *testing.T) {
	m := seedStore(t, worldPair())

	old := make([]models.Activity, 60)
	for i := range old {
		old[i] = models.Activity{Type: models.ActivityPurify, UserID: "old", City: fmt.Sprintf("c%d", i)}
	}
	stats := models.GlobalStats{RecentActivities: old}
	raw, err := json.Marshal(stats)
	if err != nil {
		t.Fatalf("marshal stats: %v", err)
	}
	m.data[KeyStats] = string(raw)

	e := testEngine(m)
	if _, err := e.Purify(context.Background(), PurifyInput{CityName: "Tokyo", Energy: 5}); err != nil {
		t.Fatalf("purify: %v", err)
	}

	got := storedStats(t, m).RecentActivities
	if len(got) != 30 {
		t.Fatalf("activities = %d, want 30", len(got))
	}
	if got[0].City != "Tokyo" {
		t.Errorf("head activity city = %q, want Tokyo", got[0].City)
	}
	if got[1].City != "c0" {
		t.Errorf("second activity city = %q, want c0 (oldest retained)", got[1].City)
	}
}

func TestActivityNicknameTruncatedTo40(t *testing.T) {
	m := seedStore(t, worldPair())
	e := testEngine(m)

	long := ""
	for i := 0; i < 50; i++ {
		long += "x"
	}
	if _, err := e.Purify(context.Background(), PurifyInput{CityName: "Tokyo", Energy: 5, UserID: "u1", Nickname: long}); err != nil {
		t.Fatalf("purify: %v", err)
	}

	stats := storedStats(t, m)
	var purifyAct *models.Activity
	for i := range stats.RecentActivities {
		if stats.RecentActivities[i].Type == models.ActivityPurify {
			purifyAct = &stats.RecentActivities[i]
		}
	}
	if purifyAct == nil {
		t.Fatal("no purify activity recorded")
	}
	if len([]rune(purifyAct.Nickname)) != 40 {
		t.Errorf("activity nickname length = %d, want 40", len([]rune(purifyAct.Nickname)))
	}
	if got := storedLeaderboard(t, m)[0].Nickname; len([]rune(got)) != 40 {
		t.Errorf("leaderboard nickname length = %d, want 40", len([]rune(got)))
	}
}

func TestLookupIsByDisplayName(t *testing.T) {
	m := seedStore(t, models.CitySet{
		"newyork": {Name: "New York", Lat: 40.7128, Lng: -74.0060, Brightness: 10},
		"osaka":   {Name: "Osaka", Lat: 34.6937, Lng: 135.5023, Brightness: 10},
	})
	e := testEngine(m)

	// The stable key never matches; only the display name does.
	if _, err := e.Purify(context.Background(), PurifyInput{CityName: "newyork", Energy: 5}); err != ErrCityNotFound {
		t.Fatalf("key lookup err = %v, want ErrCityNotFound", err)
	}

	result, err := e.Purify(context.Background(), PurifyInput{CityName: "New York", Energy: 5})
	if err != nil {
		t.Fatalf("name lookup: %v", err)
	}
	if result.CityKey != "newyork" {
		t.Errorf("resolved key = %q, want newyork", result.CityKey)
	}
}

func TestFirstPurifyUnlocksAchievement(t *testing.T) {
	m := seedStore(t, worldPair())
	e := testEngine(m)
	ctx := context.Background()

	result, err := e.Purify(ctx, PurifyInput{CityName: "Tokyo", Energy: 10, UserID: "u1", Nickname: "Alice"})
	if err != nil {
		t.Fatalf("purify: %v", err)
	}

	found := false
	for _, a := range result.Unlocked {
		if a.ID == "first_purify" {
			found = true
		}
	}
	if !found {
		t.Fatal("first_purify not in unlocked achievements")
	}

	p := storedPlayer(t, m, "u1")
	if len(p.Achievements) == 0 || p.Achievements[0] != "first_purify" {
		t.Fatalf("player achievements = %v, want [first_purify ...]", p.Achievements)
	}

	// A repeat purify must not unlock it again.
	result, err = e.Purify(ctx, PurifyInput{CityName: "Tokyo", Energy: 10, UserID: "u1"})
	if err != nil {
		t.Fatalf("repeat purify: %v", err)
	}
	for _, a := range result.Unlocked {
		if a.ID == "first_purify" {
			t.Error("first_purify unlocked twice")
		}
	}
}
