package detector_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"poker-coach/internal/detector"
	"poker-coach/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newDetector(t *testing.T, srv *httptest.Server, minConf float64) detector.Detector {
	t.Helper()
	d, err := detector.NewRoboflowDetector(detector.Config{
		BaseURL:       srv.URL,
		Model:         "playing-cards",
		Version:       "4",
		APIKey:        "rf-key",
		MinConfidence: minConf,
		Timeout:       5 * time.Second,
	}, zap.NewNop())
	require.NoError(t, err)
	return d
}

func TestDedupeLabels(t *testing.T) {
	assert.Equal(t, []string{"AH", "KS"}, detector.DedupeLabels([]string{"AH", "KS", "AH"}))
	assert.Equal(t, []string{}, detector.DedupeLabels(nil))
	assert.Equal(t, []string{"2C", "3D", "4H"}, detector.DedupeLabels([]string{"2C", "3D", "2C", "4H", "3D"}))
}

func TestDetect_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/playing-cards/4", r.URL.Path)
		assert.Equal(t, "rf-key", r.URL.Query().Get("api_key"))
		assert.Equal(t, "https://coach.example.com/api/photo/req-1", r.URL.Query().Get("image"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"predictions":[
			{"class":"AH","confidence":0.97},
			{"class":"ks","confidence":0.91},
			{"class":"AH","confidence":0.88}
		]}`))
	}))
	defer srv.Close()

	labels, err := newDetector(t, srv, 0).Detect(context.Background(), "https://coach.example.com/api/photo/req-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"AH", "KS"}, labels)
}

func TestDetect_MinConfidence(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"predictions":[{"class":"AH","confidence":0.9},{"class":"2C","confidence":0.2}]}`))
	}))
	defer srv.Close()

	labels, err := newDetector(t, srv, 0.5).Detect(context.Background(), "http://x/photo")
	require.NoError(t, err)
	assert.Equal(t, []string{"AH"}, labels)
}

func TestDetect_EmptyPredictions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"predictions":[]}`))
	}))
	defer srv.Close()

	labels, err := newDetector(t, srv, 0).Detect(context.Background(), "http://x/photo")
	require.NoError(t, err)
	assert.Empty(t, labels)
}

func TestDetect_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		substr string
	}{
		{"non-2xx", http.StatusUnauthorized, `{"message":"bad key"}`, "status 401"},
		{"malformed json", http.StatusOK, `{"predictions":`, "malformed response"},
		{"missing predictions", http.StatusOK, `{"time":0.1}`, "invalid response"},
		{"empty class", http.StatusOK, `{"predictions":[{"class":"","confidence":0.5}]}`, "invalid response"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := newDetector(t, srv, 0).Detect(context.Background(), "http://x/photo")
			require.Error(t, err)
			assert.ErrorIs(t, err, models.ErrDetection)
			assert.Contains(t, err.Error(), tt.substr)
		})
	}
}

func TestDetect_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newDetector(t, srv, 0).Detect(ctx, "http://x/photo")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrDetection)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewRoboflowDetector_Validation(t *testing.T) {
	_, err := detector.NewRoboflowDetector(detector.Config{BaseURL: "not a url", APIKey: "k"}, nil)
	assert.Error(t, err)

	_, err = detector.NewRoboflowDetector(detector.Config{BaseURL: "https://x", APIKey: ""}, nil)
	assert.ErrorIs(t, err, models.ErrConfiguration)
}
