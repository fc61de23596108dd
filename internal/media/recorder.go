package media

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media/ivfwriter"
	"github.com/pion/webrtc/v4/pkg/media/oggwriter"
)

// trackWriter is the shared surface of pion's IVF and Ogg writers.
type trackWriter interface {
	WriteRTP(packet *rtp.Packet) error
	Close() error
}

// Recorder is the optional local recording sink: inbound tracks are
// written to timestamped IVF/Ogg files in the configured directory.
// Recording is a local resource operation only; it never touches
// negotiation state.
type Recorder struct {
	dir string

	mu      sync.Mutex
	writers []trackWriter
	closed  bool
}

func NewRecorder(dir string) *Recorder {
	return &Recorder{dir: dir}
}

// HandleTrack starts persisting one inbound track. Unknown codecs are
// skipped with a log line rather than failing the meeting.
func (r *Recorder) HandleTrack(track *webrtc.TrackRemote) {
	mime := track.Codec().MimeType

	var (
		writer trackWriter
		err    error
	)
	switch {
	case strings.EqualFold(mime, webrtc.MimeTypeVP8):
		writer, err = ivfwriter.New(r.filename("ivf"))
	case strings.EqualFold(mime, webrtc.MimeTypeOpus):
		writer, err = oggwriter.New(r.filename("ogg"), 48000, 2)
	default:
		slog.Info("not recording track", "mime", mime)
		return
	}
	if err != nil {
		slog.Error("recording unavailable", "err", err)
		return
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		writer.Close()
		return
	}
	r.writers = append(r.writers, writer)
	r.mu.Unlock()

	go r.record(track, writer)
}

func (r *Recorder) record(track *webrtc.TrackRemote, writer trackWriter) {
	for {
		packet, _, err := track.ReadRTP()
		if err != nil {
			return
		}
		if err := writer.WriteRTP(packet); err != nil {
			slog.Error("recording write failed", "err", err)
			return
		}
	}
}

func (r *Recorder) filename(ext string) string {
	name := fmt.Sprintf("recording-%d.%s", time.Now().UnixMilli(), ext)
	return filepath.Join(r.dir, name)
}

// Close flushes and closes all track files.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	var firstErr error
	for _, w := range r.writers {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	r.writers = nil
	return firstErr
}
