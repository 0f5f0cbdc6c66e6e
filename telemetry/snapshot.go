package telemetry

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/pthm-cable/evogrid/arena"
	"github.com/pthm-cable/evogrid/config"
	"github.com/pthm-cable/evogrid/neural"
	"github.com/pthm-cable/evogrid/population"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// ErrSnapshot wraps every snapshot decoding failure.
var ErrSnapshot = errors.New("telemetry: bad snapshot")

// Snapshot holds the heritable state of a population at a generation
// boundary. Positions are not kept; a restored population is placed at
// random, as every new generation is.
type Snapshot struct {
	Version int    `json:"version"`
	RunID   string `json:"run_id,omitempty"`
	Seed    uint64 `json:"seed"`

	Simulation config.Simulation `json:"simulation"`
	Generation int               `json:"generation"`

	Agents []AgentState `json:"agents"`

	Bookmark *Bookmark `json:"bookmark,omitempty"`
}

// AgentState holds one agent's heritable data.
type AgentState struct {
	Oscillator uint32   `json:"oscillator"`
	Genome     []string `json:"genome"` // hex-encoded genes
}

// NewSnapshot captures the heritable data of every agent in pop.
func NewSnapshot(pop *population.Population, sim config.Simulation, seed uint64, generation int) *Snapshot {
	s := &Snapshot{
		Version:    SnapshotVersion,
		Seed:       seed,
		Simulation: sim,
		Generation: generation,
		Agents:     make([]AgentState, pop.Len()),
	}
	for i := range s.Agents {
		h, genome := pop.Heritable(i)
		hex := make([]string, len(genome))
		for j, g := range genome {
			hex[j] = g.Hex()
		}
		s.Agents[i] = AgentState{Oscillator: h.Oscillator, Genome: hex}
	}
	return s
}

// Arena decodes the agents into a heritable arena shaped for the
// snapshot's simulation parameters.
func (s *Snapshot) Arena() (*population.HeritableArena, error) {
	if s.Version != SnapshotVersion {
		return nil, fmt.Errorf("%w: version %d, want %d", ErrSnapshot, s.Version, SnapshotVersion)
	}
	sim := s.Simulation
	if err := sim.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSnapshot, err)
	}
	if len(s.Agents) != sim.PopulationSize {
		return nil, fmt.Errorf("%w: %d agents, population_size %d", ErrSnapshot, len(s.Agents), sim.PopulationSize)
	}

	b := arena.Reserve[population.Heritable, neural.Gene](sim.PopulationSize, sim.GenomeLength)
	for i, a := range s.Agents {
		if len(a.Genome) != sim.GenomeLength {
			return nil, fmt.Errorf("%w: agent %d has %d genes, want %d", ErrSnapshot, i, len(a.Genome), sim.GenomeLength)
		}
		h, genome := b.Write(i)
		h.Oscillator = a.Oscillator
		for j, hex := range a.Genome {
			g, err := neural.ParseGene(hex)
			if err != nil {
				return nil, fmt.Errorf("%w: agent %d gene %d: %w", ErrSnapshot, i, j, err)
			}
			genome[j] = g
		}
	}
	return b.Finalize()
}

// SaveSnapshot writes a snapshot to disk.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	name := fmt.Sprintf("snapshot_gen%06d", snapshot.Generation)
	if snapshot.Bookmark != nil {
		sanitized := strings.ReplaceAll(string(snapshot.Bookmark.Type), " ", "_")
		name = fmt.Sprintf("snapshot_gen%06d_%s", snapshot.Generation, sanitized)
	}
	name += ".json"

	path := filepath.Join(dir, name)

	data, err := json.Marshal(snapshot)
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	slog.Info("snapshot saved",
		"path", path,
		"generation", snapshot.Generation,
		"agents", len(snapshot.Agents),
		"size", humanize.Bytes(uint64(len(data))),
	)
	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}

	return &snapshot, nil
}
