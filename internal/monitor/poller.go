package monitor

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/qarote/qarote/internal/alert"
	"github.com/qarote/qarote/internal/models"
	"github.com/qarote/qarote/internal/rabbitmq"

	"golang.org/x/sync/semaphore"
	"gorm.io/gorm"
)

const (
	maxConcurrentPolls = 10
	retryAttempts      = 3
	retryDelay         = 5 * time.Second
)

// Poller periodically reads every enabled server's management API and
// hands the snapshots to the rule manager for evaluation.
type Poller struct {
	db          *gorm.DB
	ruleManager *alert.RuleManager
	interval    time.Duration
	mutex       sync.RWMutex
	snapshots   map[uint]*rabbitmq.Snapshot
	stopChan    chan struct{}
	sem         *semaphore.Weighted
	metrics     *PollerMetrics
}

type PollerMetrics struct {
	mutex               sync.RWMutex
	totalPolls          uint64
	failedPolls         uint64
	totalProcessingTime time.Duration
}

func NewPoller(db *gorm.DB, ruleManager *alert.RuleManager, interval time.Duration) *Poller {
	return &Poller{
		db:          db,
		ruleManager: ruleManager,
		interval:    interval,
		snapshots:   make(map[uint]*rabbitmq.Snapshot),
		stopChan:    make(chan struct{}),
		sem:         semaphore.NewWeighted(maxConcurrentPolls),
		metrics:     &PollerMetrics{},
	}
}

func (p *Poller) Start() error {
	// Initial poll
	if err := p.poll(); err != nil {
		log.Printf("Error on initial poll: %v", err)
	}

	go func() {
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := p.poll(); err != nil {
					log.Printf("Error polling servers: %v", err)
				}
			case <-p.stopChan:
				return
			}
		}
	}()

	return nil
}

func (p *Poller) Stop() {
	close(p.stopChan)
}

func (p *Poller) poll() error {
	startTime := time.Now()
	defer func() {
		p.metrics.mutex.Lock()
		p.metrics.totalProcessingTime += time.Since(startTime)
		p.metrics.mutex.Unlock()
	}()

	var servers []models.Server
	if err := p.db.Where("enabled = ?", true).Find(&servers).Error; err != nil {
		p.metrics.mutex.Lock()
		p.metrics.failedPolls++
		p.metrics.mutex.Unlock()
		return fmt.Errorf("failed to list servers: %v", err)
	}

	ctx := context.Background()
	var wg sync.WaitGroup
	errChan := make(chan error, len(servers))

	for i := range servers {
		server := servers[i]
		wg.Add(1)
		go func() {
			defer wg.Done()

			if err := p.sem.Acquire(ctx, 1); err != nil {
				errChan <- err
				return
			}
			defer p.sem.Release(1)

			if err := p.pollServer(ctx, &server); err != nil {
				errChan <- fmt.Errorf("error polling server %s: %v", server.Name, err)
			}
		}()
	}

	wg.Wait()
	close(errChan)

	var errors []error
	for err := range errChan {
		errors = append(errors, err)
	}

	p.metrics.mutex.Lock()
	p.metrics.totalPolls++
	if len(errors) > 0 {
		p.metrics.failedPolls++
	}
	p.metrics.mutex.Unlock()

	if len(errors) > 0 {
		return fmt.Errorf("poll errors: %v", errors)
	}
	return nil
}

func (p *Poller) pollServer(ctx context.Context, server *models.Server) error {
	snap, err := p.snapshotWithRetry(ctx, server)

	now := time.Now()
	updates := map[string]interface{}{"last_polled": now, "last_error": ""}
	if err != nil {
		updates["last_error"] = err.Error()
	}
	if dbErr := p.db.Model(&models.Server{}).Where("id = ?", server.ID).Updates(updates).Error; dbErr != nil {
		log.Printf("Warning: failed to update server poll status: %v", dbErr)
	}
	if err != nil {
		return err
	}

	p.mutex.Lock()
	p.snapshots[server.ID] = snap
	p.mutex.Unlock()

	return p.ruleManager.EvaluateSnapshot(ctx, server, snap)
}

func (p *Poller) snapshotWithRetry(ctx context.Context, server *models.Server) (*rabbitmq.Snapshot, error) {
	client := rabbitmq.NewClient(server)
	var lastErr error
	for attempt := 0; attempt < retryAttempts; attempt++ {
		snap, err := client.Snapshot(ctx)
		if err == nil {
			return snap, nil
		}
		lastErr = err
		select {
		case <-time.After(retryDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, fmt.Errorf("failed after %d attempts: %v", retryAttempts, lastErr)
}

// LatestSnapshot returns the most recent snapshot for a server, if any.
func (p *Poller) LatestSnapshot(serverID uint) (*rabbitmq.Snapshot, bool) {
	p.mutex.RLock()
	defer p.mutex.RUnlock()
	snap, ok := p.snapshots[serverID]
	return snap, ok
}

func (p *Poller) GetMetrics() map[string]interface{} {
	p.metrics.mutex.RLock()
	defer p.metrics.mutex.RUnlock()

	avg := 0.0
	if p.metrics.totalPolls > 0 {
		avg = p.metrics.totalProcessingTime.Seconds() / float64(p.metrics.totalPolls)
	}
	return map[string]interface{}{
		"total_polls":          p.metrics.totalPolls,
		"failed_polls":         p.metrics.failedPolls,
		"avg_poll_time":        avg,
		"max_concurrent_polls": maxConcurrentPolls,
		"interval_seconds":     p.interval.Seconds(),
	}
}
