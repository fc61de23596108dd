package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media"
	"github.com/pion/webrtc/v4/pkg/media/ivfreader"
	"github.com/pion/webrtc/v4/pkg/media/oggreader"
)

const oggPageDuration = 20 * time.Millisecond

// Source is the host capture boundary: something that yields local
// tracks for the peer connection. The CLI backs it with media files;
// a desktop build would back it with real capture devices.
type Source interface {
	Tracks() []webrtc.TrackLocal
	Start(ctx context.Context)
	Close() error
}

// FileSource plays IVF (VP8) video and Ogg (Opus) audio from disk
// into local tracks. It is the command-line stand-in for camera and
// microphone capture; a second instance with just a video file serves
// as the screen-share source. Files loop at EOF so a short clip keeps
// a meeting alive.
//
// Muting pauses sample delivery without touching the track or the
// negotiation: frames keep being read to preserve timing, they are
// just not written.
type FileSource struct {
	videoPath string
	audioPath string

	videoTrack *webrtc.TrackLocalStaticSample
	audioTrack *webrtc.TrackLocalStaticSample

	videoOn atomic.Bool
	audioOn atomic.Bool

	closeOnce sync.Once
	done      chan struct{}
}

// NewFileSource builds a source from the given file paths; either may
// be empty to skip that kind. A missing or unreadable file is the CLI
// analog of media-device denial and is reported immediately.
func NewFileSource(videoPath, audioPath string) (*FileSource, error) {
	if videoPath == "" && audioPath == "" {
		return nil, errors.New("no media files configured")
	}

	s := &FileSource{
		videoPath: videoPath,
		audioPath: audioPath,
		done:      make(chan struct{}),
	}
	s.videoOn.Store(true)
	s.audioOn.Store(true)

	if videoPath != "" {
		if err := checkReadable(videoPath); err != nil {
			return nil, fmt.Errorf("video capture unavailable: %w", err)
		}
		track, err := webrtc.NewTrackLocalStaticSample(
			webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8}, "video", "vclass",
		)
		if err != nil {
			return nil, err
		}
		s.videoTrack = track
	}

	if audioPath != "" {
		if err := checkReadable(audioPath); err != nil {
			return nil, fmt.Errorf("audio capture unavailable: %w", err)
		}
		track, err := webrtc.NewTrackLocalStaticSample(
			webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus}, "audio", "vclass",
		)
		if err != nil {
			return nil, err
		}
		s.audioTrack = track
	}

	return s, nil
}

func checkReadable(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	return f.Close()
}

// Tracks returns the local tracks to attach to the peer connection.
func (s *FileSource) Tracks() []webrtc.TrackLocal {
	var tracks []webrtc.TrackLocal
	if s.videoTrack != nil {
		tracks = append(tracks, s.videoTrack)
	}
	if s.audioTrack != nil {
		tracks = append(tracks, s.audioTrack)
	}
	return tracks
}

// VideoTrack returns the outbound video track, if any. Used for
// in-place screen-share substitution.
func (s *FileSource) VideoTrack() webrtc.TrackLocal {
	if s.videoTrack == nil {
		return nil
	}
	return s.videoTrack
}

// SetVideoEnabled pauses or resumes video sample delivery (camera
// toggle).
func (s *FileSource) SetVideoEnabled(on bool) {
	s.videoOn.Store(on)
}

// SetAudioEnabled pauses or resumes audio sample delivery (mic
// toggle).
func (s *FileSource) SetAudioEnabled(on bool) {
	s.audioOn.Store(on)
}

// Start begins playback into the tracks. It returns immediately; the
// playback loops run until the context ends or the source closes.
func (s *FileSource) Start(ctx context.Context) {
	if s.videoTrack != nil {
		go s.playVideo(ctx)
	}
	if s.audioTrack != nil {
		go s.playAudio(ctx)
	}
}

func (s *FileSource) playVideo(ctx context.Context) {
	file, err := os.Open(s.videoPath)
	if err != nil {
		slog.Error("video playback failed", "err", err)
		return
	}
	defer file.Close()

	ivf, header, err := ivfreader.NewWith(file)
	if err != nil {
		slog.Error("video playback failed", "err", err)
		return
	}

	frameDuration := time.Millisecond *
		time.Duration((float32(header.TimebaseNumerator)/float32(header.TimebaseDenominator))*1000)
	if frameDuration <= 0 {
		frameDuration = 33 * time.Millisecond
	}

	ticker := time.NewTicker(frameDuration)
	defer ticker.Stop()

	for {
		frame, _, err := ivf.ParseNextFrame()
		if errors.Is(err, io.EOF) {
			if _, err := file.Seek(0, io.SeekStart); err != nil {
				return
			}
			if ivf, _, err = ivfreader.NewWith(file); err != nil {
				return
			}
			continue
		}
		if err != nil {
			slog.Error("video playback failed", "err", err)
			return
		}

		if s.videoOn.Load() {
			if err := s.videoTrack.WriteSample(media.Sample{Data: frame, Duration: frameDuration}); err != nil {
				return
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case <-ticker.C:
		}
	}
}

func (s *FileSource) playAudio(ctx context.Context) {
	file, err := os.Open(s.audioPath)
	if err != nil {
		slog.Error("audio playback failed", "err", err)
		return
	}
	defer file.Close()

	ogg, _, err := oggreader.NewWith(file)
	if err != nil {
		slog.Error("audio playback failed", "err", err)
		return
	}

	var lastGranule uint64
	ticker := time.NewTicker(oggPageDuration)
	defer ticker.Stop()

	for {
		pageData, pageHeader, err := ogg.ParseNextPage()
		if errors.Is(err, io.EOF) {
			if _, err := file.Seek(0, io.SeekStart); err != nil {
				return
			}
			if ogg, _, err = oggreader.NewWith(file); err != nil {
				return
			}
			lastGranule = 0
			continue
		}
		if err != nil {
			slog.Error("audio playback failed", "err", err)
			return
		}

		sampleCount := float64(pageHeader.GranulePosition - lastGranule)
		lastGranule = pageHeader.GranulePosition
		sampleDuration := time.Duration((sampleCount/48000)*1000) * time.Millisecond

		if s.audioOn.Load() {
			if err := s.audioTrack.WriteSample(media.Sample{Data: pageData, Duration: sampleDuration}); err != nil {
				return
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case <-ticker.C:
		}
	}
}

// Close stops playback. Safe to call more than once.
func (s *FileSource) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
	})
	return nil
}
