package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"igfollowers/pkg/logger"
	"igfollowers/pkg/models"
	"igfollowers/pkg/storage"
)

// CurrentVersion is the checkpoint file format version
const CurrentVersion = 1

// Checkpoint is the resumable state of a run against one target
type Checkpoint struct {
	Target         string           `json:"target"`
	RunID          string           `json:"run_id"`
	Identifiers    []string         `json:"identifiers"`
	CollectionDone bool             `json:"collection_done"`
	StopReason     string           `json:"stop_reason,omitempty"`
	Resolved       map[string]int64 `json:"resolved"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
	Version        int              `json:"version"`
}

// Pending returns the collected identifiers without a resolved count, in order
func (c *Checkpoint) Pending() []string {
	pending := make([]string, 0, len(c.Identifiers))
	for _, id := range c.Identifiers {
		if _, ok := c.Resolved[id]; !ok {
			pending = append(pending, id)
		}
	}
	return pending
}

// Results returns the stored counts as resolution results
func (c *Checkpoint) Results(baseURL string) []models.AttributeResult {
	results := make([]models.AttributeResult, 0, len(c.Resolved))
	for _, id := range c.Identifiers {
		n, ok := c.Resolved[id]
		if !ok {
			continue
		}
		results = append(results, models.AttributeResult{
			Identifier: id,
			Followers:  models.Count(n),
			Strategy:   "checkpoint",
		})
	}
	return results
}

// Manager handles checkpoint operations for one target
type Manager struct {
	checkpointPath string
	logger         logger.Logger
	mu             sync.Mutex
}

// NewManager creates a checkpoint manager storing target's state under dir
func NewManager(dir, target string, log logger.Logger) (*Manager, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoints directory: %w", err)
	}
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Manager{
		checkpointPath: filepath.Join(dir, fmt.Sprintf("%s.checkpoint.json", target)),
		logger:         log,
	}, nil
}

// Path returns the checkpoint file location
func (m *Manager) Path() string {
	return m.checkpointPath
}

// Create creates and saves a fresh checkpoint
func (m *Manager) Create(target, runID string) (*Checkpoint, error) {
	now := time.Now()
	checkpoint := &Checkpoint{
		Target:    target,
		RunID:     runID,
		Resolved:  make(map[string]int64),
		CreatedAt: now,
		UpdatedAt: now,
		Version:   CurrentVersion,
	}

	if err := m.Save(checkpoint); err != nil {
		return nil, fmt.Errorf("failed to save initial checkpoint: %w", err)
	}

	m.logger.InfoWithFields("Checkpoint created", map[string]interface{}{
		"target": target,
		"path":   m.checkpointPath,
	})

	return checkpoint, nil
}

// Load reads the checkpoint; it returns nil, nil when none exists
func (m *Manager) Load() (*Checkpoint, error) {
	data, err := os.ReadFile(m.checkpointPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open checkpoint file: %w", err)
	}

	var checkpoint Checkpoint
	if err := json.Unmarshal(data, &checkpoint); err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint: %w", err)
	}
	if checkpoint.Version > CurrentVersion {
		return nil, fmt.Errorf("checkpoint version %d is newer than supported version %d", checkpoint.Version, CurrentVersion)
	}
	if checkpoint.Resolved == nil {
		checkpoint.Resolved = make(map[string]int64)
	}

	m.logger.InfoWithFields("Checkpoint loaded", map[string]interface{}{
		"target":          checkpoint.Target,
		"collected":       len(checkpoint.Identifiers),
		"collection_done": checkpoint.CollectionDone,
		"resolved":        len(checkpoint.Resolved),
		"updated_at":      checkpoint.UpdatedAt,
	})

	return &checkpoint, nil
}

// Save writes the checkpoint atomically
func (m *Manager) Save(checkpoint *Checkpoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.save(checkpoint)
}

func (m *Manager) save(checkpoint *Checkpoint) error {
	checkpoint.UpdatedAt = time.Now()

	data, err := json.MarshalIndent(checkpoint, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}
	if err := storage.WriteFileAtomic(m.checkpointPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}

	m.logger.DebugWithFields("Checkpoint saved", map[string]interface{}{
		"target":    checkpoint.Target,
		"collected": len(checkpoint.Identifiers),
		"resolved":  len(checkpoint.Resolved),
	})
	return nil
}

// RecordCollection stores the collected identifiers
func (m *Manager) RecordCollection(checkpoint *Checkpoint, identifiers []string, done bool, stopReason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	checkpoint.Identifiers = append([]string(nil), identifiers...)
	checkpoint.CollectionDone = done
	checkpoint.StopReason = stopReason
	return m.save(checkpoint)
}

// RecordResolution stores a resolved count. Results without a count are not
// stored so that a resumed run tries them again.
func (m *Manager) RecordResolution(checkpoint *Checkpoint, result models.AttributeResult) error {
	if result.Followers == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	checkpoint.Resolved[result.Identifier] = *result.Followers
	return m.save(checkpoint)
}

// Delete removes the checkpoint file
func (m *Manager) Delete() error {
	if err := os.Remove(m.checkpointPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}

	m.logger.Info("Checkpoint deleted")
	return nil
}

// Exists checks if a checkpoint file exists
func (m *Manager) Exists() bool {
	return storage.Exists(m.checkpointPath)
}
