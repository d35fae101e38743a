package scheduler

import (
	"log"
	"time"

	"github.com/comanda-app/comanda/app/models"
	"github.com/comanda-app/comanda/internal/pkg/metrics/counter"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// staleThreshold marks how long a device may stay silent before an active
// status is no longer believable.
const staleThreshold = 24 * time.Hour

// Scheduler runs the periodic maintenance jobs.
type Scheduler struct {
	cron *cron.Cron
	db   *gorm.DB
}

func New(db *gorm.DB) *Scheduler {
	return &Scheduler{
		cron: cron.New(),
		db:   db,
	}
}

// Start registers the jobs and launches the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("*/5 * * * *", s.sweepStaleDevices); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("@every 1m", flushCounters); err != nil {
		return err
	}
	s.cron.Start()
	log.Println("scheduler: started")
	return nil
}

// Stop halts the cron loop and waits for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("scheduler: stopped")
}

// sweepStaleDevices flips devices that claim to be active but have not been
// seen within the threshold into the error status. The event log stays
// untouched: it records only what the bridge reported, never what we inferred.
func (s *Scheduler) sweepStaleDevices() {
	cutoff := time.Now().Add(-staleThreshold)

	result := s.db.Model(&models.Device{}).
		Where("status = ? AND last_seen IS NOT NULL AND last_seen < ?", models.DEVICE_STATUS_ACTIVE, cutoff).
		Update("status", models.DEVICE_STATUS_ERROR)
	if result.Error != nil {
		log.Printf("scheduler: stale device sweep failed: %v", result.Error)
		return
	}
	if result.RowsAffected > 0 {
		log.Printf("scheduler: marked %d stale device(s) as error", result.RowsAffected)
	}
}

// flushCounters drains the Redis message counters into the devices table.
func flushCounters() {
	if err := counter.FlushAll(); err != nil {
		log.Printf("scheduler: counter flush failed: %v", err)
	}
}
