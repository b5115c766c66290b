package models

import "time"

// CapturedPhoto - фото, присланное устройством в ответ на request_photo.
type CapturedPhoto struct {
	RequestID string
	Data      []byte
	MimeType  string
	Filename  string
	Timestamp time.Time
}

// StoredPhoto - последнее фото владельца в PhotoCache.
type StoredPhoto struct {
	RequestID  string    `json:"requestId"`
	Data       []byte    `json:"-"`
	MimeType   string    `json:"mimeType"`
	Filename   string    `json:"filename"`
	Size       int       `json:"size"`
	CapturedAt time.Time `json:"capturedAt"`
	OwnerID    string    `json:"ownerId"`
}

// NewStoredPhoto builds the cache entry for a capture owned by ownerID.
func NewStoredPhoto(ownerID string, p CapturedPhoto) *StoredPhoto {
	captured := p.Timestamp
	if captured.IsZero() {
		captured = time.Now()
	}
	return &StoredPhoto{
		RequestID:  p.RequestID,
		Data:       p.Data,
		MimeType:   p.MimeType,
		Filename:   p.Filename,
		Size:       len(p.Data),
		CapturedAt: captured,
		OwnerID:    ownerID,
	}
}
