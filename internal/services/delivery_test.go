package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/VikramTex/filedesk-backend/internal/models"
)

// pdfBytes is a minimal body the sniffer also recognizes as PDF.
var pdfBytes = []byte("%PDF-1.4\n%fake\n")

func newDownloadServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/pdf", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write(pdfBytes)
	})
	mux.HandleFunc("/image", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("\x89PNG\r\n\x1a\nfake"))
	})
	mux.HandleFunc("/weird", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-unknown")
		_, _ = w.Write([]byte{0x00, 0x01, 0x02, 0x03})
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestDelivery(t *testing.T) (*Delivery, *fakeMessenger, string) {
	t.Helper()

	scratch := t.TempDir()
	messenger := &fakeMessenger{}
	tokens := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "test-token"})
	return NewDelivery(tokens, messenger, scratch), messenger, scratch
}

func ref(url string) *models.FileReference {
	return &models.FileReference{FileID: url, URL: url}
}

func TestDeliver_PDFGetsPDFCaption(t *testing.T) {
	srv := newDownloadServer(t)
	d, messenger, scratch := newTestDelivery(t)

	d.Deliver(context.Background(), registeredPhone, []*models.FileReference{ref(srv.URL + "/pdf")})

	files := messenger.sentFiles()
	require.Len(t, files, 1)
	assert.Equal(t, registeredPhone, files[0].to)
	assert.Equal(t, "download.pdf", files[0].fileName)
	assert.Equal(t, captionPDF, files[0].caption)
	assert.Empty(t, messenger.sentTexts())

	assertScratchEmpty(t, scratch)
}

func TestDeliver_ImageGetsGenericCaption(t *testing.T) {
	srv := newDownloadServer(t)
	d, messenger, _ := newTestDelivery(t)

	d.Deliver(context.Background(), registeredPhone, []*models.FileReference{ref(srv.URL + "/image")})

	files := messenger.sentFiles()
	require.Len(t, files, 1)
	assert.Equal(t, "download.png", files[0].fileName)
	assert.Equal(t, captionFile, files[0].caption)
}

func TestDeliver_UnsupportedFormatNotifiesAndCleansUp(t *testing.T) {
	srv := newDownloadServer(t)
	d, messenger, scratch := newTestDelivery(t)

	d.Deliver(context.Background(), registeredPhone, []*models.FileReference{ref(srv.URL + "/weird")})

	assert.Empty(t, messenger.sentFiles())
	require.Len(t, messenger.sentTexts(), 1)
	assert.Equal(t, msgUnsupported, messenger.lastText())

	assertScratchEmpty(t, scratch)
}

func TestDeliver_FailureReportsError(t *testing.T) {
	srv := newDownloadServer(t)
	d, messenger, scratch := newTestDelivery(t)

	d.Deliver(context.Background(), registeredPhone, []*models.FileReference{ref(srv.URL + "/broken")})

	assert.Empty(t, messenger.sentFiles())
	require.Len(t, messenger.sentTexts(), 1)
	assert.Equal(t, msgDownloadFailure, messenger.lastText())

	assertScratchEmpty(t, scratch)
}

func TestDeliver_OneFailureDoesNotAbortSiblings(t *testing.T) {
	srv := newDownloadServer(t)
	d, messenger, scratch := newTestDelivery(t)

	d.Deliver(context.Background(), registeredPhone, []*models.FileReference{
		ref(srv.URL + "/broken"),
		ref(srv.URL + "/pdf"),
	})

	// The healthy transfer still completes and the failure is reported.
	files := messenger.sentFiles()
	require.Len(t, files, 1)
	assert.Equal(t, captionPDF, files[0].caption)

	texts := messenger.sentTexts()
	require.Len(t, texts, 1)
	assert.Equal(t, msgDownloadFailure, texts[0].body)

	assertScratchEmpty(t, scratch)
}

func TestExtensionFor(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		data        []byte
		want        string
	}{
		{"declared pdf", "application/pdf", []byte("anything"), "pdf"},
		{"declared with charset", "image/png; charset=binary", nil, "png"},
		{"declared xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", nil, "xlsx"},
		{"sniffed pdf", "application/octet-stream", pdfBytes, "pdf"},
		{"unknown", "application/x-unknown", []byte{0x00, 0x01}, "bin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extensionFor(tt.contentType, tt.data))
		})
	}
}

func assertScratchEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "transient files must be removed on every exit path")
}
