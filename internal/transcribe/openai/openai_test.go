package openai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kikiluvv/recut/internal/captions"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RequiresKey(t *testing.T) {
	_, err := New(zerolog.Nop(), Options{})
	assert.Error(t, err)
}

func TestTranscribe(t *testing.T) {
	var gotPath, gotModel, gotFormat, gotLang string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotModel = r.FormValue("model")
		gotFormat = r.FormValue("response_format")
		gotLang = r.FormValue("language")

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"task": "transcribe",
			"language": "english",
			"duration": 4.2,
			"text": "Hello there. Bye.",
			"segments": [
				{"id": 0, "start": 0.0, "end": 2.5, "text": " Hello there."},
				{"id": 1, "start": 2.5, "end": 3.0, "text": "  "},
				{"id": 2, "start": 3.0, "end": 4.2, "text": " Bye."}
			]
		}`))
	}))
	defer srv.Close()

	audio := filepath.Join(t.TempDir(), "speech.wav")
	require.NoError(t, os.WriteFile(audio, []byte("RIFF"), 0o644))

	a, err := New(zerolog.Nop(), Options{APIKey: "test", BaseURL: srv.URL + "/v1/"})
	require.NoError(t, err)

	entries, err := a.Transcribe(context.Background(), audio, "en")
	require.NoError(t, err)

	assert.Equal(t, "/v1/audio/transcriptions", gotPath)
	assert.Equal(t, DefaultModel, gotModel)
	assert.Equal(t, "verbose_json", gotFormat)
	assert.Equal(t, "en", gotLang)
	assert.Equal(t, []captions.Entry{
		{Start: 0, End: 2500 * time.Millisecond, Text: "Hello there."},
		{Start: 3 * time.Second, End: 4200 * time.Millisecond, Text: "Bye."},
	}, entries)
}

func TestTranscribe_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	audio := filepath.Join(t.TempDir(), "speech.wav")
	require.NoError(t, os.WriteFile(audio, []byte("RIFF"), 0o644))

	a, err := New(zerolog.Nop(), Options{APIKey: "test", BaseURL: srv.URL, Model: "whisper-large"})
	require.NoError(t, err)

	_, err = a.Transcribe(context.Background(), audio, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad key")
}
