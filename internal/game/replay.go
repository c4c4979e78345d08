package game

import (
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Replay is the ordered snapshot history of one match, stepped through
// with a cursor for playback.
type Replay struct {
	mu        sync.RWMutex
	MatchID   string
	Snapshots []Snapshot
	cursor    int
}

// NewReplay creates an empty replay for the match.
func NewReplay(matchID string) *Replay {
	return &Replay{MatchID: matchID}
}

// Record appends a snapshot to the history.
func (r *Replay) Record(snap Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Snapshots = append(r.Snapshots, snap)
}

// Len returns the number of recorded snapshots.
func (r *Replay) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.Snapshots)
}

// Rewind resets the playback cursor to the beginning.
func (r *Replay) Rewind() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cursor = 0
}

// Next returns the snapshot at the cursor and advances it.
func (r *Replay) Next() (Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cursor >= len(r.Snapshots) {
		return Snapshot{}, false
	}
	snap := r.Snapshots[r.cursor]
	r.cursor++
	return snap, true
}

// Previous steps the cursor back and returns the snapshot there.
func (r *Replay) Previous() (Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cursor == 0 {
		return Snapshot{}, false
	}
	r.cursor--
	return r.Snapshots[r.cursor], true
}

// At returns the snapshot at index without moving the cursor.
func (r *Replay) At(index int) (Snapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if index < 0 || index >= len(r.Snapshots) {
		return Snapshot{}, false
	}
	return r.Snapshots[index], true
}

// replayHeader precedes the snapshot stream in a saved replay file.
type replayHeader struct {
	MatchID string
	SavedAt time.Time
	Version int
	Count   int
}

const replayVersion = 1

// Save writes the replay as a gzipped gob stream under directory.
func (r *Replay) Save(directory string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if err := os.MkdirAll(directory, 0o755); err != nil {
		return fmt.Errorf("create replay directory: %w", err)
	}
	file, err := os.Create(replayPath(directory, r.MatchID))
	if err != nil {
		return fmt.Errorf("create replay file: %w", err)
	}
	defer file.Close()

	zw := gzip.NewWriter(file)
	defer zw.Close()

	enc := gob.NewEncoder(zw)
	header := replayHeader{
		MatchID: r.MatchID,
		SavedAt: time.Now(),
		Version: replayVersion,
		Count:   len(r.Snapshots),
	}
	if err := enc.Encode(&header); err != nil {
		return fmt.Errorf("encode replay header: %w", err)
	}
	for i := range r.Snapshots {
		if err := enc.Encode(&r.Snapshots[i]); err != nil {
			return fmt.Errorf("encode snapshot %d: %w", i, err)
		}
	}
	return nil
}

// LoadReplay reads a saved replay back from directory.
func LoadReplay(directory, matchID string) (*Replay, error) {
	file, err := os.Open(replayPath(directory, matchID))
	if err != nil {
		return nil, fmt.Errorf("open replay file: %w", err)
	}
	defer file.Close()

	zr, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("read replay file: %w", err)
	}
	defer zr.Close()

	dec := gob.NewDecoder(zr)
	var header replayHeader
	if err := dec.Decode(&header); err != nil {
		return nil, fmt.Errorf("decode replay header: %w", err)
	}
	if header.Version != replayVersion {
		return nil, fmt.Errorf("unsupported replay version %d", header.Version)
	}

	replay := NewReplay(header.MatchID)
	for i := 0; i < header.Count; i++ {
		var snap Snapshot
		if err := dec.Decode(&snap); err != nil {
			return nil, fmt.Errorf("decode snapshot %d: %w", i, err)
		}
		replay.Snapshots = append(replay.Snapshots, snap)
	}
	return replay, nil
}

func replayPath(directory, matchID string) string {
	return filepath.Join(directory, matchID+".replay")
}

// ReplayRecorder captures every snapshot a match publishes. It plugs in
// as a StateNotificationSink; completed matches are flushed to disk
// when a save directory is configured.
type ReplayRecorder struct {
	logger  *zap.Logger
	saveDir string

	mu   sync.Mutex
	live map[string]*Replay
}

// NewReplayRecorder creates a recorder. An empty saveDir keeps finished
// replays in memory instead of writing them out.
func NewReplayRecorder(logger *zap.Logger, saveDir string) *ReplayRecorder {
	return &ReplayRecorder{
		logger:  logger,
		saveDir: saveDir,
		live:    make(map[string]*Replay),
	}
}

// Notify records the snapshot, flushing the match on completion.
func (rr *ReplayRecorder) Notify(snap Snapshot) {
	rr.mu.Lock()
	replay, ok := rr.live[snap.MatchID]
	if !ok {
		replay = NewReplay(snap.MatchID)
		rr.live[snap.MatchID] = replay
	}
	rr.mu.Unlock()

	replay.Record(snap)

	if snap.Complete {
		rr.finish(replay)
	}
}

func (rr *ReplayRecorder) finish(replay *Replay) {
	if rr.saveDir == "" {
		return
	}
	if err := replay.Save(rr.saveDir); err != nil {
		rr.logger.Error("replay save failed",
			zap.String("match_id", replay.MatchID),
			zap.Error(err))
		return
	}
	rr.mu.Lock()
	delete(rr.live, replay.MatchID)
	rr.mu.Unlock()
	rr.logger.Info("replay saved",
		zap.String("match_id", replay.MatchID),
		zap.Int("snapshots", replay.Len()))
}

// Replay returns the in-memory replay for a match, if present.
func (rr *ReplayRecorder) Replay(matchID string) (*Replay, bool) {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	replay, ok := rr.live[matchID]
	return replay, ok
}

// Load reads a flushed replay back from the save directory.
func (rr *ReplayRecorder) Load(matchID string) (*Replay, error) {
	return LoadReplay(rr.saveDir, matchID)
}

// Forget drops an in-memory replay without saving it.
func (rr *ReplayRecorder) Forget(matchID string) {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	delete(rr.live, matchID)
}
