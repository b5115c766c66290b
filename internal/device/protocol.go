package device

import "poker-coach/internal/models"

// Типы сообщений протокола очков.
const (
	// device -> server
	TypeButtonPress = "button_press"
	TypePhoto       = "photo"
	TypePhotoError  = "photo_error"
	TypeAudioDone   = "audio_done"
	TypeAudioError  = "audio_error"

	// server -> device
	TypeSpeak        = "speak"
	TypeStopAudio    = "stop_audio"
	TypeRequestPhoto = "request_photo"
	TypePlayAudio    = "play_audio"
)

// InboundMessage - любое сообщение от устройства. Заполнены только поля своего типа.
type InboundMessage struct {
	Type      string `json:"type"`
	PressType string `json:"pressType,omitempty"`
	RequestID string `json:"requestId,omitempty"`
	MimeType  string `json:"mimeType,omitempty"`
	Filename  string `json:"filename,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"` // unix ms
	Data      string `json:"data,omitempty"`      // base64
	Error     string `json:"error,omitempty"`
}

type speakMessage struct {
	Type      string               `json:"type"`
	RequestID string               `json:"requestId"`
	Text      string               `json:"text"`
	Voice     models.VoiceSettings `json:"voice"`
}

type stopAudioMessage struct {
	Type string `json:"type"`
}

type requestPhotoMessage struct {
	Type      string `json:"type"`
	RequestID string `json:"requestId"`
}

type playAudioMessage struct {
	Type      string  `json:"type"`
	RequestID string  `json:"requestId"`
	AudioURL  string  `json:"audioUrl"`
	Volume    float64 `json:"volume"`
}
