package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/VikramTex/filedesk-backend/internal/models"
)

const (
	captionPDF         = "Here is your requested PDF."
	captionFile        = "Here is your requested file."
	msgUnsupported     = "Sorry, the file format is not supported."
	msgDownloadFailure = "Sorry, there was an error downloading the file."
)

// supportedFormats is the allow-list of extensions we forward to users.
var supportedFormats = map[string]bool{
	"pdf":  true,
	"png":  true,
	"jpg":  true,
	"jpeg": true,
	"gif":  true,
	"webp": true,
	"xls":  true,
	"xlsx": true,
}

// contentTypeExt maps declared content types onto file extensions.
var contentTypeExt = map[string]string{
	"application/pdf": "pdf",
	"image/png":       "png",
	"image/jpeg":      "jpg",
	"image/gif":       "gif",
	"image/webp":      "webp",
	"application/vnd.ms-excel": "xls",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": "xlsx",
}

// Delivery downloads resolved file references with a bearer token, writes
// each to a uniquely named transient file, forwards it to the requester
// and removes the transient copy on every exit path.
type Delivery struct {
	tokens     oauth2.TokenSource
	client     *http.Client
	messenger  Messenger
	scratchDir string
}

// NewDelivery creates the delivery pipeline. Transient files go under
// scratchDir (the OS temp dir when empty).
func NewDelivery(tokens oauth2.TokenSource, messenger Messenger, scratchDir string) *Delivery {
	if scratchDir == "" {
		scratchDir = os.TempDir()
	}
	return &Delivery{
		tokens:     tokens,
		client:     &http.Client{Timeout: 2 * time.Minute},
		messenger:  messenger,
		scratchDir: scratchDir,
	}
}

// Deliver fans the references out, one goroutine each, and joins. Every
// transfer is awaited independently: a failed download is logged and
// reported to the target without touching the sibling transfers.
func (d *Delivery) Deliver(ctx context.Context, to string, refs []*models.FileReference) {
	var wg sync.WaitGroup
	for _, ref := range refs {
		wg.Add(1)
		go func(ref *models.FileReference) {
			defer wg.Done()
			if err := d.deliverOne(ctx, to, ref); err != nil {
				log.Printf("❌ Failed to deliver file %s to %s: %v", ref.FileID, to, err)
				if sendErr := d.messenger.SendText(to, msgDownloadFailure); sendErr != nil {
					log.Printf("❌ Failed to report download error to %s: %v", to, sendErr)
				}
			}
		}(ref)
	}
	wg.Wait()
}

func (d *Delivery) deliverOne(ctx context.Context, to string, ref *models.FileReference) error {
	data, contentType, err := d.download(ctx, ref.URL)
	if err != nil {
		return err
	}

	ext := extensionFor(contentType, data)
	path := filepath.Join(d.scratchDir, fmt.Sprintf("%s.%s", uuid.NewString(), ext))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write transient file: %w", err)
	}
	defer func() {
		if err := os.Remove(path); err != nil {
			log.Printf("⚠️  Failed to remove transient file %s: %v", path, err)
		}
	}()

	log.Printf("✅ File downloaded: %s (%d bytes)", filepath.Base(path), len(data))

	if !supportedFormats[ext] {
		return d.messenger.SendText(to, msgUnsupported)
	}

	caption := captionFile
	if ext == "pdf" {
		caption = captionPDF
	}
	return d.messenger.SendFile(to, path, "download."+ext, caption)
}

// download fetches the reference with a short-lived access token from the
// authentication collaborator. No retries.
func (d *Delivery) download(ctx context.Context, url string) ([]byte, string, error) {
	tok, err := d.tokens.Token()
	if err != nil {
		return nil, "", fmt.Errorf("failed to obtain access token: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build download request: %w", err)
	}
	tok.SetAuthHeader(req)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("download failed with status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read download body: %w", err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

// extensionFor infers a file extension from the declared content type,
// sniffing the bytes when the type is unknown. Defaults to "bin".
func extensionFor(contentType string, data []byte) string {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		if ext, ok := contentTypeExt[mt]; ok {
			return ext
		}
	}
	if ext := strings.TrimPrefix(mimetype.Detect(data).Extension(), "."); ext != "" {
		return ext
	}
	return "bin"
}
