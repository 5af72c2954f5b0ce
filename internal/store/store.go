// Package store persists simulation history to SQLite via GORM, the
// external consumer of the core's observation surface described in the
// specification — it subscribes to history buffers the core already
// maintains rather than introducing any new invariant.
package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/fabricsim/fabricsim/pkg/container"
	"github.com/fabricsim/fabricsim/pkg/datacenter"
	"github.com/fabricsim/fabricsim/pkg/node"
)

// Run represents one recorded simulation invocation.
type Run struct {
	ID          string `gorm:"primaryKey"`
	DataCenter  string
	Duration    float64
	StartedAt   time.Time
	CompletedAt *time.Time
}

// NodeSnapshot is one recorded node monitor tick.
type NodeSnapshot struct {
	ID            uint `gorm:"primaryKey"`
	RunID         string `gorm:"index"`
	NodeName      string `gorm:"index"`
	Time          float64
	UsedCPU       float64
	UsedRAM       int
	UsedDisk      int
	UsedBW        int
	AvailableCPU  float64
	AvailableRAM  int
	AvailableDisk int
	AvailableBW   int
}

// ContainerSnapshot is one recorded container tick.
type ContainerSnapshot struct {
	ID        uint `gorm:"primaryKey"`
	RunID     string `gorm:"index"`
	NodeName  string `gorm:"index"`
	Container string `gorm:"index"`
	Time      float64
	CPU       float64
	RAM       int
	Disk      int
	BW        int
}

// Store wraps a GORM SQLite connection holding the recorded run tables.
type Store struct {
	db *gorm.DB
}

// Open connects to (and, if needed, creates) the SQLite database at path
// and migrates the recorder's schema.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening store %q: %w", path, err)
	}
	if err := db.AutoMigrate(&Run{}, &NodeSnapshot{}, &ContainerSnapshot{}); err != nil {
		return nil, fmt.Errorf("migrating store %q: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// BeginRun inserts a Run row and returns its generated id.
func (s *Store) BeginRun(dcName string, duration float64) (string, error) {
	run := Run{
		ID:         uuid.New().String(),
		DataCenter: dcName,
		Duration:   duration,
		StartedAt:  time.Now(),
	}
	if err := s.db.Create(&run).Error; err != nil {
		return "", fmt.Errorf("creating run: %w", err)
	}
	return run.ID, nil
}

// CompleteRun stamps the run's completion time.
func (s *Store) CompleteRun(runID string) error {
	now := time.Now()
	return s.db.Model(&Run{}).Where("id = ?", runID).Update("completed_at", &now).Error
}

// RecordDataCenter persists every node's and container's full in-memory
// history for the given run, in one pass over the final state — called
// once a run completes. Persisting verbatim (same count, same values) as
// the in-memory buffers is the recorder-fidelity contract this package
// exists to satisfy.
func (s *Store) RecordDataCenter(runID string, dc *datacenter.DataCenter) error {
	for _, n := range dc.Nodes {
		if err := s.recordNode(runID, n); err != nil {
			return err
		}
		for _, c := range n.Containers {
			if err := s.recordContainer(runID, n.Name, c); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Store) recordNode(runID string, n *node.Node) error {
	h := n.History
	rows := make([]NodeSnapshot, 0, h.Len())
	for i := 0; i < h.Len(); i++ {
		rows = append(rows, NodeSnapshot{
			RunID:         runID,
			NodeName:      n.Name,
			Time:          h.Time[i],
			UsedCPU:       h.UsedCPU[i],
			UsedRAM:       h.UsedRAM[i],
			UsedDisk:      h.UsedDisk[i],
			UsedBW:        h.UsedBW[i],
			AvailableCPU:  h.AvailableCPU[i],
			AvailableRAM:  h.AvailableRAM[i],
			AvailableDisk: h.AvailableDisk[i],
			AvailableBW:   h.AvailableBW[i],
		})
	}
	if len(rows) == 0 {
		return nil
	}
	return s.db.Create(&rows).Error
}

func (s *Store) recordContainer(runID, nodeName string, c *container.Container) error {
	h := c.History
	rows := make([]ContainerSnapshot, 0, h.Len())
	for i := 0; i < h.Len(); i++ {
		rows = append(rows, ContainerSnapshot{
			RunID:     runID,
			NodeName:  nodeName,
			Container: c.Name,
			Time:      h.Time[i],
			CPU:       h.CPU[i],
			RAM:       h.RAM[i],
			Disk:      h.Disk[i],
			BW:        h.BW[i],
		})
	}
	if len(rows) == 0 {
		return nil
	}
	return s.db.Create(&rows).Error
}

// NodeSnapshots returns every recorded tick for nodeName within runID,
// ordered by time, for the reporting server to serve.
func (s *Store) NodeSnapshots(runID, nodeName string) ([]NodeSnapshot, error) {
	var rows []NodeSnapshot
	err := s.db.Where("run_id = ? AND node_name = ?", runID, nodeName).Order("time asc").Find(&rows).Error
	return rows, err
}

// ContainerSnapshots returns every recorded tick for containerName within
// runID, ordered by time.
func (s *Store) ContainerSnapshots(runID, containerName string) ([]ContainerSnapshot, error) {
	var rows []ContainerSnapshot
	err := s.db.Where("run_id = ? AND container = ?", runID, containerName).Order("time asc").Find(&rows).Error
	return rows, err
}

// LatestRun returns the most recently started Run.
func (s *Store) LatestRun() (*Run, error) {
	var run Run
	if err := s.db.Order("started_at desc").First(&run).Error; err != nil {
		return nil, fmt.Errorf("loading latest run: %w", err)
	}
	return &run, nil
}
