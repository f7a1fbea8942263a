package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/VikramTex/filedesk-backend/internal/models"
	"github.com/VikramTex/filedesk-backend/internal/storage"
)

// User-facing texts. These follow the production bot wording exactly.
const (
	menuText = "Hello! How can I help you today?\n\nType 1 for Design Image\nType 2 for Invoice\nType 3 for PT File\nType 4 for LR Image"
	helpText = `Sorry, I did not understand that. Please type "1" to request a design image, "2" to request an invoice, "3" to request a PT file, or "4" to request an LR image.`

	promptDesignNumber  = "Please enter the design number:"
	promptInvoiceNumber = "Please enter the invoice number:"
	promptPTNumber      = "Please enter the invoice number for the PT file:"
	promptLRNumber      = "Please enter the LR number (case-sensitive):"
	promptRequestType   = "Please specify the type of request:\nType 1 for Design Image\nType 2 for Invoice\nType 3 for PT File\nType 4 for LR Image"

	msgNotRegistered     = "Sorry, your number is not registered."
	msgNoDesignFile      = "Sorry, no file found for the given design number."
	msgNoColorFile       = "Sorry, no file found for the selected color."
	msgInvalidColor      = "Invalid color selection. Please try again."
	msgNoDocumentFileFmt = "Sorry, no file found for the given %s number."
)

// Lookup resolves request keys and checks sender registration.
type Lookup interface {
	ResolveDesign(ctx context.Context, designNumber, sender string) DesignResult
	ResolveDocument(ctx context.Context, invoiceNumber, sender string, col models.DocumentColumn) DocumentResult
	ResolveLR(ctx context.Context, lrNumber, sender string) DocumentResult
}

// Deliverer downloads resolved references and sends them to the requester.
type Deliverer interface {
	Deliver(ctx context.Context, to string, refs []*models.FileReference)
}

// Conversation is the per-sender dialogue state machine: menu selection,
// key entry, optional color disambiguation, then file delivery. All state
// lives in the injected session store.
type Conversation struct {
	sessions  storage.SessionStore
	lookup    Lookup
	delivery  Deliverer
	messenger Messenger
}

// NewConversation wires the conversation state machine.
func NewConversation(sessions storage.SessionStore, lookup Lookup, delivery Deliverer, messenger Messenger) *Conversation {
	return &Conversation{
		sessions:  sessions,
		lookup:    lookup,
		delivery:  delivery,
		messenger: messenger,
	}
}

// HandleMessage processes one inbound text message. Replies go out through
// the messenger; nothing here is fatal to the message loop.
func (c *Conversation) HandleMessage(ctx context.Context, from, body string) {
	phone := strings.TrimPrefix(from, "whatsapp:")
	text := strings.TrimSpace(body)
	if text == "" {
		return
	}

	log.Printf("📱 Processing message from %s: %q", phone, text)

	// Greetings always get the menu, whatever the current step.
	switch strings.ToLower(text) {
	case "hi", "hello":
		c.send(phone, menuText)
		return
	}

	switch text {
	case "1", "2", "3", "4":
		c.handleTypeSelection(ctx, phone, text)
		return
	}

	session, ok := c.sessions.Get(phone)
	if !ok {
		// Key arrived before a category was declared: queue it and ask.
		c.sessions.Put(phone, &models.Session{
			Step:       models.StepAwaitingRequestType,
			PendingKey: text,
		})
		c.send(phone, promptRequestType)
		return
	}

	switch session.Step {
	case models.StepAwaitingDesignNumber:
		c.resolveDesign(ctx, phone, text)
	case models.StepAwaitingColor:
		c.handleColorChoice(ctx, phone, session, text)
	case models.StepAwaitingDocumentNumber:
		c.resolveDocument(ctx, phone, session.Request, session.Column, text)
	case models.StepAwaitingRequestType:
		// Still no category; keep the most recent key.
		session.PendingKey = text
		c.sessions.Put(phone, session)
		c.send(phone, promptRequestType)
	default:
		c.send(phone, helpText)
	}
}

// handleTypeSelection handles "1"-"4". With a queued key the selection
// consumes it and resolves immediately; otherwise it prompts for the key.
func (c *Conversation) handleTypeSelection(ctx context.Context, phone, choice string) {
	if session, ok := c.sessions.Get(phone); ok &&
		session.Step == models.StepAwaitingRequestType && session.PendingKey != "" {
		key := session.PendingKey
		c.sessions.Delete(phone)
		switch choice {
		case "1":
			c.resolveDesign(ctx, phone, key)
		case "2":
			c.resolveDocument(ctx, phone, models.RequestInvoice, models.ColumnInvoice, key)
		case "3":
			c.resolveDocument(ctx, phone, models.RequestPTFile, models.ColumnPTFile, key)
		case "4":
			c.resolveDocument(ctx, phone, models.RequestLRImage, models.ColumnLRImage, key)
		}
		return
	}

	switch choice {
	case "1":
		c.sessions.Put(phone, &models.Session{
			Step:    models.StepAwaitingDesignNumber,
			Request: models.RequestDesign,
		})
		c.send(phone, promptDesignNumber)
	case "2":
		c.sessions.Put(phone, &models.Session{
			Step:    models.StepAwaitingDocumentNumber,
			Request: models.RequestInvoice,
			Column:  models.ColumnInvoice,
		})
		c.send(phone, promptInvoiceNumber)
	case "3":
		c.sessions.Put(phone, &models.Session{
			Step:    models.StepAwaitingDocumentNumber,
			Request: models.RequestPTFile,
			Column:  models.ColumnPTFile,
		})
		c.send(phone, promptPTNumber)
	case "4":
		c.sessions.Put(phone, &models.Session{
			Step:    models.StepAwaitingDocumentNumber,
			Request: models.RequestLRImage,
			Column:  models.ColumnLRImage,
		})
		c.send(phone, promptLRNumber)
	}
}

// resolveDesign terminates or advances a design request for the given key.
func (c *Conversation) resolveDesign(ctx context.Context, phone, designNumber string) {
	res := c.lookup.ResolveDesign(ctx, designNumber, phone)
	log.Printf("Design No %s for %s: %d match(es)", designNumber, phone, len(res.Files))

	if !res.Registered {
		c.sessions.Delete(phone)
		c.send(phone, msgNotRegistered)
		return
	}
	if len(res.Files) == 0 {
		c.sessions.Delete(phone)
		c.send(phone, msgNoDesignFile)
		return
	}

	distinct := res.DistinctColors()
	if len(distinct) > 1 {
		var b strings.Builder
		b.WriteString("Please select a color:\n\n")
		for i, color := range distinct {
			fmt.Fprintf(&b, "• Type %c for %s\n", 'a'+i, color)
		}
		c.sessions.Put(phone, &models.Session{
			Step:         models.StepAwaitingColor,
			Request:      models.RequestDesign,
			DesignNumber: designNumber,
			Colors:       distinct,
		})
		c.send(phone, b.String())
		return
	}

	c.sessions.Delete(phone)
	c.delivery.Deliver(ctx, phone, res.Files[:1])
}

// handleColorChoice maps a single letter onto the stored distinct-color
// list. An invalid selection keeps the session; a valid one re-resolves
// the stored design number and delivers all matching files in parallel.
func (c *Conversation) handleColorChoice(ctx context.Context, phone string, session *models.Session, text string) {
	choice := strings.ToLower(text)
	idx := -1
	if len(choice) == 1 && choice[0] >= 'a' && choice[0] <= 'z' {
		idx = int(choice[0] - 'a')
	}
	if idx < 0 || idx >= len(session.Colors) {
		c.send(phone, msgInvalidColor)
		return
	}

	color := session.Colors[idx]
	res := c.lookup.ResolveDesign(ctx, session.DesignNumber, phone)
	refs := res.FilterByColor(color)

	c.sessions.Delete(phone)
	if len(refs) == 0 {
		c.send(phone, msgNoColorFile)
		return
	}
	c.delivery.Deliver(ctx, phone, refs)
}

// resolveDocument terminates an invoice, PT or LR request.
func (c *Conversation) resolveDocument(ctx context.Context, phone string, request models.RequestType, col models.DocumentColumn, key string) {
	var res DocumentResult
	if request == models.RequestLRImage {
		res = c.lookup.ResolveLR(ctx, key, phone)
	} else {
		res = c.lookup.ResolveDocument(ctx, key, phone, col)
	}
	log.Printf("%s No %s for %s: found=%v", documentLabel(request), key, phone, res.File != nil)

	c.sessions.Delete(phone)
	if !res.Registered {
		c.send(phone, msgNotRegistered)
		return
	}
	if res.File == nil {
		c.send(phone, fmt.Sprintf(msgNoDocumentFileFmt, documentLabel(request)))
		return
	}
	c.delivery.Deliver(ctx, phone, []*models.FileReference{res.File})
}

func documentLabel(request models.RequestType) string {
	switch request {
	case models.RequestPTFile:
		return "PT file"
	case models.RequestLRImage:
		return "LR"
	default:
		return "invoice"
	}
}

func (c *Conversation) send(phone, body string) {
	if err := c.messenger.SendText(phone, body); err != nil {
		log.Printf("❌ Failed to send WhatsApp message to %s: %v", phone, err)
	}
}
