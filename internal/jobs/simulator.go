package jobs

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"backend/internal/models"
	"backend/internal/service"
)

// SimulationManager generates synthetic purification traffic directly
// against the service layer, bypassing HTTP. Used in development to light
// up the world map and exercise the relay path under load.
type SimulationManager struct {
	service *service.GameService
	cities  []string
	ticker  *time.Ticker
	stopCh  chan struct{}
	wg      sync.WaitGroup
	running atomic.Bool

	// Metrics
	totalEvents  atomic.Int64
	successCount atomic.Int64
	errorCount   atomic.Int64
	startTime    time.Time

	// Configuration
	tickInterval  time.Duration
	eventsPerTick int
	minEnergy     float64
	maxEnergy     float64
	playerCount   int
}

// SimulatorConfig holds configuration for the simulator
type SimulatorConfig struct {
	TickInterval  time.Duration // Default: 500ms
	EventsPerTick int           // Default: 1
	MinEnergy     float64       // Default: 1
	MaxEnergy     float64       // Default: 25
	PlayerCount   int           // Default: 50 synthetic players
}

// NewSimulationManager creates a new simulation manager
func NewSimulationManager(service *service.GameService, config SimulatorConfig) *SimulationManager {
	// Apply defaults
	if config.TickInterval == 0 {
		config.TickInterval = 500 * time.Millisecond
	}
	if config.EventsPerTick == 0 {
		config.EventsPerTick = 1
	}
	if config.MinEnergy == 0 {
		config.MinEnergy = 1
	}
	if config.MaxEnergy == 0 {
		config.MaxEnergy = 25
	}
	if config.PlayerCount == 0 {
		config.PlayerCount = 50
	}

	return &SimulationManager{
		service:       service,
		stopCh:        make(chan struct{}),
		tickInterval:  config.TickInterval,
		eventsPerTick: config.EventsPerTick,
		minEnergy:     config.MinEnergy,
		maxEnergy:     config.MaxEnergy,
		playerCount:   config.PlayerCount,
	}
}

// Start begins the simulation loop
func (sm *SimulationManager) Start(ctx context.Context) error {
	if sm.running.Load() {
		return fmt.Errorf("simulation already running")
	}

	// Load city names from the current world state
	status, err := sm.service.Status(ctx)
	if err != nil {
		return fmt.Errorf("failed to load world state: %w", err)
	}
	if len(status.Cities) == 0 {
		return fmt.Errorf("no cities available for simulation")
	}

	sm.cities = make([]string, 0, len(status.Cities))
	for _, c := range status.Cities {
		sm.cities = append(sm.cities, c.Name)
	}

	sm.startTime = time.Now()
	sm.running.Store(true)

	log.Printf("🚀 Simulation Manager Started")
	log.Printf("   - Cities: %d", len(sm.cities))
	log.Printf("   - Tick Interval: %v", sm.tickInterval)
	log.Printf("   - Events per Tick: %d", sm.eventsPerTick)
	log.Printf("   - Energy Range: [%.0f, %.0f]", sm.minEnergy, sm.maxEnergy)
	log.Printf("   - Synthetic Players: %d", sm.playerCount)

	// Start simulation goroutine
	sm.wg.Add(1)
	go sm.simulationLoop(ctx)

	// Start metrics reporter
	sm.wg.Add(1)
	go sm.metricsReporter(ctx)

	return nil
}

// Stop gracefully stops the simulation
func (sm *SimulationManager) Stop() {
	if !sm.running.Load() {
		return
	}

	log.Println("⏹️ Stopping Simulation Manager...")
	sm.running.Store(false)
	close(sm.stopCh)
	sm.wg.Wait()

	elapsed := time.Since(sm.startTime)
	total := sm.totalEvents.Load()
	rate := float64(total) / elapsed.Seconds()

	log.Println("✅ Simulation Manager Stopped")
	log.Printf("   - Total Events: %d", total)
	log.Printf("   - Successful: %d", sm.successCount.Load())
	log.Printf("   - Errors: %d", sm.errorCount.Load())
	log.Printf("   - Duration: %v", elapsed.Round(time.Second))
	log.Printf("   - Average Rate: %.1f events/sec", rate)
}

// IsRunning returns whether the simulation is currently running
func (sm *SimulationManager) IsRunning() bool {
	return sm.running.Load()
}

// simulationLoop is the main event loop
func (sm *SimulationManager) simulationLoop(ctx context.Context) {
	defer sm.wg.Done()

	sm.ticker = time.NewTicker(sm.tickInterval)
	defer sm.ticker.Stop()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for {
		select {
		case <-ctx.Done():
			log.Println("🛑 Simulation context cancelled")
			return

		case <-sm.stopCh:
			return

		case <-sm.ticker.C:
			for i := 0; i < sm.eventsPerTick; i++ {
				cityName := sm.cities[rng.Intn(len(sm.cities))]
				energy := sm.minEnergy + rng.Float64()*(sm.maxEnergy-sm.minEnergy)
				playerNum := rng.Intn(sm.playerCount) + 1
				userID := fmt.Sprintf("sim_%04d", playerNum)
				nickname := fmt.Sprintf("Simulant %d", playerNum)

				req := &models.PurifyRequest{
					CityName: cityName,
					Energy:   &energy,
					UserID:   userID,
					Nickname: nickname,
				}

				// Direct service call (bypasses HTTP stack)
				sm.totalEvents.Add(1)
				if _, err := sm.service.Purify(context.Background(), req); err != nil {
					sm.errorCount.Add(1)
					// Log only a sample of failures to keep the output readable
					if sm.errorCount.Load()%100 == 1 {
						log.Printf("⚠️ Simulation error (total: %d): %v", sm.errorCount.Load(), err)
					}
				} else {
					sm.successCount.Add(1)
				}
			}
		}
	}
}

// metricsReporter logs metrics periodically
func (sm *SimulationManager) metricsReporter(ctx context.Context) {
	defer sm.wg.Done()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-sm.stopCh:
			return
		case <-ticker.C:
			elapsed := time.Since(sm.startTime)
			total := sm.totalEvents.Load()
			rate := float64(total) / elapsed.Seconds()

			log.Printf("📊 Simulation Metrics:")
			log.Printf("   - Events: %d (%.1f/sec)", total, rate)
			log.Printf("   - Success: %d | Errors: %d", sm.successCount.Load(), sm.errorCount.Load())
			log.Printf("   - Uptime: %v", elapsed.Round(time.Second))
		}
	}
}
