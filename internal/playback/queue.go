package playback

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Zachkp/retro-desktop/internal/content"
)

var (
	// ErrNoTracks is returned when the queue is empty.
	ErrNoTracks = errors.New("no tracks loaded")
	// ErrNotReady is returned for transport actions while the current
	// track is still buffering.
	ErrNotReady = errors.New("track not ready")
	// ErrTrackIndex is returned for an index outside the track list.
	ErrTrackIndex = errors.New("track index out of range")
	// ErrSingleTrack is returned when stepping through a list of one track.
	ErrSingleTrack = errors.New("only one track loaded")
)

// State is the render state of the media player.
type State struct {
	Tracks    int           `json:"tracks"`
	Index     int           `json:"index"`
	Current   *content.Song `json:"current,omitempty"`
	Playing   bool          `json:"playing"`
	Ready     bool          `json:"ready"`
	Buffering bool          `json:"buffering"`
	Duration  float64       `json:"duration"`
	// Load identifies the current load; duration reports must echo it.
	Load      uint64        `json:"load"`
}

// Queue sequences a media player's tracks: load a track, wait until its
// duration is known, then play, and move on to the next track when it ends.
type Queue struct {
	wait   WaitOptions
	logger zerolog.Logger

	mu         sync.Mutex
	tracks     []content.Song
	index      int
	token      uint64
	autoplay   bool
	playing    bool
	userPaused bool
	ready      bool
	buffering  bool
	duration   float64
}

// NewQueue returns an empty queue.
func NewQueue(wait WaitOptions, logger zerolog.Logger) *Queue {
	return &Queue{wait: wait, logger: logger}
}

// SetTracks replaces the track list and rewinds to the first track.
func (q *Queue) SetTracks(tracks []content.Song) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.tracks = append([]content.Song(nil), tracks...)
	q.index = 0
	q.token++
	q.playing = false
	q.ready = false
	q.buffering = false
	q.duration = 0
}

// Begin makes track i current and marks it buffering. Cueing a different
// track clears an earlier pause. The returned token identifies this load;
// results for older loads are dropped.
func (q *Queue) Begin(i int, autoplay bool) (uint64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.tracks) == 0 {
		return 0, ErrNoTracks
	}
	if i < 0 || i >= len(q.tracks) {
		return 0, ErrTrackIndex
	}

	if i != q.index {
		q.userPaused = false
	}
	q.token++
	q.index = i
	q.autoplay = autoplay
	q.playing = false
	q.ready = false
	q.buffering = true
	q.duration = 0
	return q.token, nil
}

// Await waits for src to report the duration of the load identified by
// token, then marks the track ready and starts it if autoplay was asked
// for and the user has not paused. On timeout the track is ready only if
// src has a usable duration by then.
func (q *Queue) Await(ctx context.Context, token uint64, src DurationSource) error {
	d, err := WaitForDuration(ctx, src, q.wait)

	q.mu.Lock()
	defer q.mu.Unlock()

	if token != q.token {
		return nil
	}

	q.buffering = false
	if err != nil {
		q.logger.Warn().Err(err).Int("track", q.index).Msg("no valid duration")
		fallback := src.Duration()
		q.ready = validDuration(fallback)
		if q.ready {
			q.duration = fallback
		}
		return err
	}

	q.duration = d
	q.ready = true
	if q.autoplay && !q.userPaused {
		q.playing = true
	}
	return nil
}

// Load is Begin followed by Await.
func (q *Queue) Load(ctx context.Context, i int, autoplay bool, src DurationSource) error {
	token, err := q.Begin(i, autoplay)
	if err != nil {
		return err
	}
	return q.Await(ctx, token, src)
}

// Play resumes the current track.
func (q *Queue) Play() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.ready {
		return ErrNotReady
	}
	q.playing = true
	q.userPaused = false
	return nil
}

// Pause stops the current track until the user resumes it.
func (q *Queue) Pause() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.ready {
		return ErrNotReady
	}
	q.playing = false
	q.userPaused = true
	return nil
}

// Next returns the track after the current one, wrapping around, and
// whether it should start on its own, which it does if the current track
// is playing. A single track has nowhere to go: ErrSingleTrack.
func (q *Queue) Next() (int, bool, error) {
	return q.step(1, true)
}

// Prev returns the track before the current one, wrapping around.
func (q *Queue) Prev() (int, bool, error) {
	return q.step(-1, true)
}

// Finished is called when the current track ends. It returns the next
// track, which always autoplays. A single track just stops.
func (q *Queue) Finished() (int, bool, error) {
	i, _, err := q.step(1, false)
	if errors.Is(err, ErrSingleTrack) {
		q.mu.Lock()
		q.playing = false
		q.mu.Unlock()
	}
	return i, true, err
}

func (q *Queue) step(delta int, needReady bool) (int, bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := len(q.tracks)
	if n == 0 {
		return 0, false, ErrNoTracks
	}
	if needReady && !q.ready {
		return 0, false, ErrNotReady
	}
	if n == 1 {
		return q.index, false, ErrSingleTrack
	}
	return ((q.index+delta)%n + n) % n, q.playing, nil
}

// State returns the player's render state.
func (q *Queue) State() State {
	q.mu.Lock()
	defer q.mu.Unlock()

	s := State{
		Tracks:    len(q.tracks),
		Index:     q.index,
		Playing:   q.playing,
		Ready:     q.ready,
		Buffering: q.buffering,
		Duration:  q.duration,
		Load:      q.token,
	}
	if q.index < len(q.tracks) {
		track := q.tracks[q.index]
		s.Current = &track
	}
	return s
}
