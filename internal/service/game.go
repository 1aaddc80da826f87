package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"backend/internal/game"
	"backend/internal/models"
	"backend/internal/repository"
	"backend/internal/worker"
)

const leaderboardLimit = 100

// GameService orchestrates the purify engine, the KV store, the archive
// worker pool and the version counter behind the HTTP handlers.
type GameService struct {
	kv           *repository.RedisKV
	postgresRepo *repository.PostgresRepository
	workerPool   *worker.WorkerPool
	engine       *game.Engine
}

// NewGameService creates a new game service
func NewGameService(
	kv *repository.RedisKV,
	postgresRepo *repository.PostgresRepository,
	workerPool *worker.WorkerPool,
) *GameService {
	return &GameService{
		kv:           kv,
		postgresRepo: postgresRepo,
		workerPool:   workerPool,
		engine:       game.NewEngine(kv),
	}
}

// Purify runs one purification event through the engine, bumps the global
// version for the WebSocket hub and hands the event to the archive pool.
func (s *GameService) Purify(ctx context.Context, req *models.PurifyRequest) (*models.PurifyResponse, error) {
	result, err := s.engine.Purify(ctx, game.PurifyInput{
		CityName: req.CityName,
		Energy:   *req.Energy,
		UserID:   req.UserID,
		Nickname: req.Nickname,
		Country:  req.Country,
	})
	if err != nil {
		return nil, err
	}

	// Version bump is advisory; a failed bump only delays the next
	// WebSocket notification.
	if err := s.kv.BumpVersion(ctx); err != nil {
		log.Printf("⚠️ Failed to bump state version: %v", err)
	}

	task := worker.ArchiveTask{
		Purify: &models.PurifyEventRecord{
			ID:            uuid.NewString(),
			UserID:        req.UserID,
			CityKey:       result.CityKey,
			CityName:      result.CityName,
			Energy:        *req.Energy,
			NewBrightness: result.NewBrightness,
			Relayed:       result.RelayTarget != nil,
		},
	}
	// The pool logs and counts dropped tasks; the KV store is already
	// updated, so the request still succeeds.
	_ = s.workerPool.Submit(task)

	resp := &models.PurifyResponse{
		Success:       true,
		CityName:      result.CityName,
		NewBrightness: result.NewBrightness,
		Message:       result.Message,
		RelayTarget:   result.RelayTarget,
	}
	for _, a := range result.Unlocked {
		resp.Achievements = append(resp.Achievements, a.ID)
	}
	return resp, nil
}

// Status returns every city's brightness plus the global average.
func (s *GameService) Status(ctx context.Context) (*models.StatusResponse, error) {
	cities, err := s.loadCities(ctx)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(cities))
	for key := range cities {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make([]models.CityStatus, 0, len(cities))
	sum := 0.0
	for _, key := range keys {
		c := cities[key]
		out = append(out, models.CityStatus{
			Name:       c.Name,
			Lat:        c.Lat,
			Lng:        c.Lng,
			Brightness: c.Brightness,
			Guardians:  c.Guardians,
		})
		sum += c.Brightness
	}

	total := 0
	if len(out) > 0 {
		total = int(math.Round(sum / float64(len(out))))
	}

	return &models.StatusResponse{
		Timestamp:       time.Now().UnixMilli(),
		Cities:          out,
		TotalBrightness: total,
	}, nil
}

// Stats returns the global counters, the five most purified cities and
// the recent-activity feed.
func (s *GameService) Stats(ctx context.Context) (*models.StatsResponse, error) {
	statsRaw, err := s.loadRequired(ctx, game.KeyStats)
	if err != nil {
		return nil, err
	}
	cities, err := s.loadCities(ctx)
	if err != nil {
		return nil, err
	}

	var stats models.GlobalStats
	if err := json.Unmarshal([]byte(statsRaw), &stats); err != nil {
		return nil, fmt.Errorf("decode %s: %w", game.KeyStats, err)
	}

	mostActive := make([]models.MostActiveCity, 0, len(cities))
	sum := 0.0
	for _, c := range cities {
		mostActive = append(mostActive, models.MostActiveCity{Name: c.Name, Purifications: c.Purifications})
		sum += c.Brightness
	}
	sort.Slice(mostActive, func(i, j int) bool {
		if mostActive[i].Purifications != mostActive[j].Purifications {
			return mostActive[i].Purifications > mostActive[j].Purifications
		}
		return mostActive[i].Name < mostActive[j].Name
	})
	if len(mostActive) > 5 {
		mostActive = mostActive[:5]
	}

	average := 0
	if len(cities) > 0 {
		average = int(math.Round(sum / float64(len(cities))))
	}

	recent := stats.RecentActivities
	if recent == nil {
		recent = []models.Activity{}
	}

	return &models.StatsResponse{
		TotalPlayers:         stats.TotalPlayers,
		TotalEnergyCollected: stats.TotalEnergy,
		TotalPurifications:   stats.TotalPurifications,
		AverageBrightness:    average,
		MostActiveCities:     mostActive,
		RecentActivities:     recent,
	}, nil
}

// Leaderboard returns the top entries ranked at read time by total energy,
// then by cities purified.
func (s *GameService) Leaderboard(ctx context.Context) (*models.LeaderboardResponse, error) {
	raw, err := s.loadRequired(ctx, game.KeyLeaderboard)
	if err != nil {
		return nil, err
	}

	list, err := game.DecodeLeaderboard(raw)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", game.KeyLeaderboard, err)
	}

	sort.SliceStable(list, func(i, j int) bool {
		if list[i].TotalEnergy != list[j].TotalEnergy {
			return list[i].TotalEnergy > list[j].TotalEnergy
		}
		return list[i].CitiesPurified > list[j].CitiesPurified
	})
	if len(list) > leaderboardLimit {
		list = list[:leaderboardLimit]
	}

	entries := make([]models.RankedEntry, 0, len(list))
	for i, e := range list {
		entries = append(entries, models.RankedEntry{
			Rank:           i + 1,
			UserID:         e.UserID,
			Nickname:       e.Nickname,
			TotalEnergy:    e.TotalEnergy,
			CitiesPurified: e.CitiesPurified,
			Country:        e.Country,
		})
	}

	return &models.LeaderboardResponse{
		Timestamp: time.Now().UnixMilli(),
		Entries:   entries,
	}, nil
}

// Initialize writes the initial world records. It refuses to overwrite an
// already-initialized store.
func (s *GameService) Initialize(ctx context.Context) (*models.InitResponse, error) {
	existing, err := s.kv.Get(ctx, game.KeyCities)
	if err == nil {
		var cities models.CitySet
		count := 0
		if err := json.Unmarshal([]byte(existing), &cities); err == nil {
			count = len(cities)
		}
		return &models.InitResponse{
			Status:      "already_initialized",
			Message:     "Data already exists",
			CitiesCount: count,
		}, nil
	}
	if !errors.Is(err, game.ErrKeyNotFound) {
		return nil, fmt.Errorf("check %s: %w", game.KeyCities, err)
	}

	cities := game.DefaultCities()
	citiesJSON, err := json.Marshal(cities)
	if err != nil {
		return nil, err
	}
	statsJSON, err := json.Marshal(models.GlobalStats{LastUpdate: time.Now().UnixMilli()})
	if err != nil {
		return nil, err
	}

	records := map[string]string{
		game.KeyCities:      string(citiesJSON),
		game.KeyStats:       string(statsJSON),
		game.KeyLeaderboard: "[]",
	}
	if err := s.kv.PutMany(ctx, records); err != nil {
		return nil, fmt.Errorf("initialize store: %w", err)
	}

	return &models.InitResponse{
		Status:      "success",
		Message:     "Game state initialized successfully",
		CitiesCount: len(cities),
	}, nil
}

// RecordAnalytics queues a batch of client events for archival.
func (s *GameService) RecordAnalytics(ctx context.Context, req *models.AnalyticsRequest) (int, error) {
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	records := make([]models.AnalyticsEventRecord, 0, len(req.Events))
	for _, e := range req.Events {
		records = append(records, models.AnalyticsEventRecord{
			ID:        uuid.NewString(),
			SessionID: sessionID,
			Category:  e.Category,
			Action:    e.Action,
			Label:     e.Label,
			Value:     e.Value,
			Timestamp: e.Timestamp,
		})
	}

	if err := s.workerPool.Submit(worker.ArchiveTask{Analytics: records}); err != nil {
		return 0, fmt.Errorf("queue analytics batch: %w", err)
	}
	return len(records), nil
}

// Version returns the current global state version
func (s *GameService) Version(ctx context.Context) (int64, error) {
	return s.kv.GetVersion(ctx)
}

// HealthCheck checks the health of both the KV store and the archive
func (s *GameService) HealthCheck(ctx context.Context) error {
	if err := s.kv.Ping(ctx); err != nil {
		return fmt.Errorf("KV store health check failed: %w", err)
	}

	if err := s.postgresRepo.Ping(ctx); err != nil {
		return fmt.Errorf("archive health check failed: %w", err)
	}

	return nil
}

func (s *GameService) loadCities(ctx context.Context) (models.CitySet, error) {
	raw, err := s.loadRequired(ctx, game.KeyCities)
	if err != nil {
		return nil, err
	}
	var cities models.CitySet
	if err := json.Unmarshal([]byte(raw), &cities); err != nil {
		return nil, fmt.Errorf("decode %s: %w", game.KeyCities, err)
	}
	return cities, nil
}

func (s *GameService) loadRequired(ctx context.Context, key string) (string, error) {
	raw, err := s.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, game.ErrKeyNotFound) {
			return "", game.ErrNotInitialized
		}
		return "", fmt.Errorf("load %s: %w", key, err)
	}
	return raw, nil
}
