package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/google/uuid"

	"github.com/i474232898/weather-dashboard/internal/climate"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

const cityTimeout = 60 * time.Second

// Refresher is the part of weather.Service the scheduler drives.
type Refresher interface {
	SearchCity(ctx context.Context, q weather.CityQuery) (weather.Location, error)
	RefreshNormals(ctx context.Context, loc weather.Location) (*climate.Normals, error)
}

// Scheduler periodically warms the city and normals caches for configured cities.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   Refresher
	cities    []weather.CityQuery
	interval  time.Duration
}

// New creates a new Scheduler.
func New(cities []weather.CityQuery, interval time.Duration, service Refresher) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		service:   service,
		cities:    cities,
		interval:  interval,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
// The first run happens immediately.
func (s *Scheduler) Start() error {
	if len(s.cities) == 0 {
		log.Println("scheduler: no cities configured; nothing to schedule")
		return nil
	}

	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 360
	}

	_, err := s.scheduler.Every(minutes).Minutes().SingletonMode().Do(func() {
		s.RunOnce(context.Background())
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// RunOnce refreshes every configured city concurrently and returns how many
// succeeded.
func (s *Scheduler) RunOnce(ctx context.Context) int {
	runID := uuid.NewString()
	log.Printf("scheduler: run %s refreshing normals for %d cities", runID, len(s.cities))

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for _, city := range s.cities {
		city := city
		wg.Add(1)
		go func() {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(ctx, cityTimeout)
			defer cancel()

			if err := s.refresh(ctx, city); err != nil {
				log.Printf("scheduler: run %s failed for %q: %v", runID, city.Name, err)
				return
			}
			mu.Lock()
			ok++
			mu.Unlock()
		}()
	}
	wg.Wait()

	log.Printf("scheduler: run %s completed, %d/%d cities refreshed", runID, ok, len(s.cities))
	return ok
}

func (s *Scheduler) refresh(ctx context.Context, city weather.CityQuery) error {
	loc, err := s.service.SearchCity(ctx, city)
	if err != nil {
		return err
	}
	_, err = s.service.RefreshNormals(ctx, loc)
	return err
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
