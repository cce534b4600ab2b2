package query

import (
	"log"
	"sync"
	"time"

	"github.com/DwamTech/nas-masr-sub000/internal/models"

	"gorm.io/gorm"
)

// ViewCounter buffers view increments in memory and writes them out in
// batches, keeping popularity counters live without per-row locking on the
// read path.
type ViewCounter struct {
	db            *gorm.DB
	flushInterval time.Duration
	stopChan      chan struct{}
	isRunning     bool

	mu      sync.Mutex
	pending map[uint]int64
}

// NewViewCounter creates a view counter flushing at the given interval.
func NewViewCounter(db *gorm.DB, flushInterval time.Duration) *ViewCounter {
	return &ViewCounter{
		db:            db,
		flushInterval: flushInterval,
		stopChan:      make(chan struct{}),
		pending:       make(map[uint]int64),
	}
}

// Start starts the background flush loop.
func (v *ViewCounter) Start() {
	if v.isRunning {
		log.Println("ViewCounter: Already running")
		return
	}
	v.isRunning = true
	log.Printf("ViewCounter: Started (flush_interval=%v)", v.flushInterval)
	go v.run()
}

// Stop stops the loop and flushes whatever is buffered.
func (v *ViewCounter) Stop() {
	if !v.isRunning {
		return
	}
	v.isRunning = false
	close(v.stopChan)
	v.Flush()
	log.Println("ViewCounter: Stopped")
}

func (v *ViewCounter) run() {
	ticker := time.NewTicker(v.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-v.stopChan:
			return
		case <-ticker.C:
			v.Flush()
		}
	}
}

// Bump records one view per listed id.
func (v *ViewCounter) Bump(ids []uint) {
	if len(ids) == 0 {
		return
	}
	v.mu.Lock()
	for _, id := range ids {
		v.pending[id]++
	}
	v.mu.Unlock()
}

// Flush drains the buffer and issues one UPDATE per distinct delta value
// (almost always a single statement).
func (v *ViewCounter) Flush() {
	v.mu.Lock()
	if len(v.pending) == 0 {
		v.mu.Unlock()
		return
	}
	drained := v.pending
	v.pending = make(map[uint]int64)
	v.mu.Unlock()

	byDelta := make(map[int64][]uint)
	for id, delta := range drained {
		byDelta[delta] = append(byDelta[delta], id)
	}

	for delta, ids := range byDelta {
		err := v.db.Model(&models.Listing{}).
			Where("id IN ?", ids).
			UpdateColumn("views", gorm.Expr("views + ?", delta)).Error
		if err != nil {
			log.Printf("ViewCounter: Failed to flush %d increments: %v", len(ids), err)
		}
	}
}
