package service_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"poker-coach/internal/models"
)

// fakeDevice records everything the coach asks the glasses to do.
type fakeDevice struct {
	sessionID string
	userID    string

	mu       sync.Mutex
	spoken   []string
	cues     []string
	stops    int
	captures int
	speakErr error

	// capture overrides the default photo response when set.
	capture func(ctx context.Context, n int) (*models.CapturedPhoto, error)
}

func newFakeDevice(sessionID, userID string) *fakeDevice {
	return &fakeDevice{sessionID: sessionID, userID: userID}
}

func (d *fakeDevice) SessionID() string { return d.sessionID }
func (d *fakeDevice) UserID() string    { return d.userID }

func (d *fakeDevice) CapturePhoto(ctx context.Context) (*models.CapturedPhoto, error) {
	d.mu.Lock()
	d.captures++
	n := d.captures
	capture := d.capture
	d.mu.Unlock()

	if capture != nil {
		return capture(ctx, n)
	}
	return &models.CapturedPhoto{
		RequestID: fmt.Sprintf("req-%d", n),
		Data:      []byte("jpeg"),
		MimeType:  "image/jpeg",
		Filename:  "photo.jpg",
		Timestamp: time.UnixMilli(1700000000000),
	}, nil
}

func (d *fakeDevice) Speak(ctx context.Context, text string, _ models.VoiceSettings) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.spoken = append(d.spoken, text)
	return d.speakErr
}

func (d *fakeDevice) StopAudio(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stops++
	return nil
}

func (d *fakeDevice) PlayAudio(ctx context.Context, audioURL string, _ float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cues = append(d.cues, audioURL)
	return nil
}

func (d *fakeDevice) Spoken() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.spoken...)
}

// TakeSpoken returns and clears the recorded speech.
func (d *fakeDevice) TakeSpoken() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := d.spoken
	d.spoken = nil
	return out
}

func (d *fakeDevice) Cues() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.cues...)
}
