package services

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// Messenger is the outbound messaging surface the core depends on: plain
// text and a single file with a display name and caption.
type Messenger interface {
	SendText(to, body string) error
	SendFile(to, localPath, fileName, caption string) error
}

// TwilioService sends WhatsApp messages via the Twilio REST API. Twilio
// fetches media by URL rather than accepting uploads, so SendFile parks
// the file bytes in the media cache and points Twilio at our /media route.
type TwilioService struct {
	client        *twilio.RestClient
	from          string // Twilio WhatsApp number, format "whatsapp:+14155238886"
	publicBaseURL string
	media         *MediaCache
}

// NewTwilioService creates a new Twilio service instance from environment
// credentials.
func NewTwilioService(media *MediaCache) (*TwilioService, error) {
	accountSid := os.Getenv("TWILIO_ACCOUNT_SID")
	authToken := os.Getenv("TWILIO_AUTH_TOKEN")
	from := os.Getenv("TWILIO_WHATSAPP_FROM")
	baseURL := os.Getenv("PUBLIC_BASE_URL")

	if accountSid == "" || authToken == "" || from == "" {
		return nil, fmt.Errorf("missing Twilio credentials in environment variables")
	}
	if baseURL == "" {
		return nil, fmt.Errorf("missing PUBLIC_BASE_URL in environment variables")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSid,
		Password: authToken,
	})

	return &TwilioService{
		client:        client,
		from:          from,
		publicBaseURL: strings.TrimRight(baseURL, "/"),
		media:         media,
	}, nil
}

// SendText sends a WhatsApp text message.
func (t *TwilioService) SendText(to, body string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(t.from)
	params.SetTo(fmt.Sprintf("whatsapp:%s", to))
	params.SetBody(body)

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		log.Printf("❌ Failed to send WhatsApp message: %v", err)
		return err
	}

	log.Printf("✅ WhatsApp message sent! SID: %s", *resp.Sid)
	return nil
}

// SendFile sends a WhatsApp media message carrying the given local file.
// The bytes are cached under a one-time token so Twilio can fetch them;
// the caller may delete the local file as soon as this returns.
func (t *TwilioService) SendFile(to, localPath, fileName, caption string) error {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return fmt.Errorf("failed to read file for sending: %w", err)
	}

	token := t.media.Add(data, mimetype.Detect(data).String(), fileName)
	mediaURL := fmt.Sprintf("%s/media/%s", t.publicBaseURL, token)

	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(t.from)
	params.SetTo(fmt.Sprintf("whatsapp:%s", to))
	params.SetBody(caption)
	params.SetMediaUrl([]string{mediaURL})

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		log.Printf("❌ Failed to send WhatsApp file: %v", err)
		return err
	}

	log.Printf("✅ WhatsApp file sent! SID: %s, file: %s", *resp.Sid, fileName)
	return nil
}
