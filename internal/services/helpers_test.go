package services

import (
	"context"
	"sync"

	"github.com/VikramTex/filedesk-backend/internal/models"
)

// fakeRows serves canned sheet rows to the lookup service.
type fakeRows struct {
	sheets map[string][][]string
}

func (f *fakeRows) FetchRows(_ context.Context, sheetName, _ string) [][]string {
	return f.sheets[sheetName]
}

// fakeMessenger records every outbound text and file.
type fakeMessenger struct {
	mu    sync.Mutex
	texts []sentText
	files []sentFile
}

type sentText struct {
	to   string
	body string
}

type sentFile struct {
	to       string
	path     string
	fileName string
	caption  string
}

func (m *fakeMessenger) SendText(to, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.texts = append(m.texts, sentText{to: to, body: body})
	return nil
}

func (m *fakeMessenger) SendFile(to, localPath, fileName, caption string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files = append(m.files, sentFile{to: to, path: localPath, fileName: fileName, caption: caption})
	return nil
}

func (m *fakeMessenger) sentTexts() []sentText {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentText(nil), m.texts...)
}

func (m *fakeMessenger) sentFiles() []sentFile {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentFile(nil), m.files...)
}

func (m *fakeMessenger) lastText() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.texts) == 0 {
		return ""
	}
	return m.texts[len(m.texts)-1].body
}

// fakeDeliverer records delivery batches instead of downloading.
type fakeDeliverer struct {
	mu      sync.Mutex
	batches [][]*models.FileReference
}

func (d *fakeDeliverer) Deliver(_ context.Context, _ string, refs []*models.FileReference) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.batches = append(d.batches, refs)
}

func (d *fakeDeliverer) delivered() [][]*models.FileReference {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([][]*models.FileReference(nil), d.batches...)
}
