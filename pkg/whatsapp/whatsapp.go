package whatsapp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/quocanhngo/deadlinemind/internal/apperr"
	"github.com/quocanhngo/deadlinemind/internal/model"
	"github.com/twilio/twilio-go"
	twilioclient "github.com/twilio/twilio-go/client"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"
)

const channelPrefix = "whatsapp:"

// Config holds Twilio WhatsApp configuration
type Config struct {
	AccountSID string
	AuthToken  string
	FromNumber string
	ContentSID string // approved message template
}

// MessageCreator is the part of the Twilio REST API used to send messages
type MessageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// Client sends WhatsApp expiry reminders through Twilio's Content API
type Client struct {
	config Config
	api    MessageCreator
	log    *zap.Logger
}

// New creates a Twilio-backed client. It is always returned, even when
// unconfigured, so Available can report what is missing.
func New(cfg Config, log *zap.Logger) *Client {
	c := &Client{config: cfg, log: log.Named("whatsapp")}
	if cfg.AccountSID != "" && cfg.AuthToken != "" {
		rest := twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: cfg.AccountSID,
			Password: cfg.AuthToken,
		})
		c.api = rest.Api
	}
	return c
}

// NewWithAPI creates a client around an existing message API
func NewWithAPI(cfg Config, api MessageCreator, log *zap.Logger) *Client {
	return &Client{config: cfg, api: api, log: log.Named("whatsapp")}
}

// Available reports a configuration error listing the missing Twilio settings
func (c *Client) Available() error {
	var missing []string
	if c.config.AccountSID == "" {
		missing = append(missing, "TWILIO_ACCOUNT_SID")
	}
	if c.config.AuthToken == "" {
		missing = append(missing, "TWILIO_AUTH_TOKEN")
	}
	if c.config.FromNumber == "" {
		missing = append(missing, "TWILIO_WHATSAPP_FROM_NUMBER")
	}
	if c.config.ContentSID == "" {
		missing = append(missing, "TWILIO_WHATSAPP_CONTENT_SID")
	}
	if len(missing) > 0 {
		return apperr.Configuration("whatsapp", "twilio configuration is incomplete, missing: %s", strings.Join(missing, ", "))
	}
	if c.api == nil {
		return apperr.Configuration("whatsapp", "twilio client is not initialised")
	}
	return nil
}

// SendExpiryReminder sends the templated reminder and returns the message SID
func (c *Client) SendExpiryReminder(ctx context.Context, phoneNumber string, vars model.WhatsAppReminder) (string, error) {
	if err := c.Available(); err != nil {
		return "", err
	}

	to, err := NormalizeNumber(phoneNumber)
	if err != nil {
		return "", err
	}

	contentVariables, err := json.Marshal(map[string]string{
		"1": vars.RecipientLabel,
		"2": vars.VehicleLabel,
		"3": vars.DocumentType,
		"4": vars.ExpiryDateFormatted,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode content variables: %w", err)
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(withChannelPrefix(c.config.FromNumber))
	params.SetContentSid(c.config.ContentSID)
	params.SetContentVariables(string(contentVariables))

	sid, err := c.create(ctx, params)
	if err != nil {
		c.log.Warn("❌ Failed to send WhatsApp reminder", zap.String("to", to), zap.Error(err))
		return "", classify(err)
	}

	c.log.Info("💬 WhatsApp reminder sent", zap.String("to", to), zap.String("sid", sid))
	return sid, nil
}

// create runs the blocking Twilio call and gives up when ctx is done.
// The SDK takes no context, so an abandoned call finishes in the background.
func (c *Client) create(ctx context.Context, params *twilioApi.CreateMessageParams) (string, error) {
	type result struct {
		msg *twilioApi.ApiV2010Message
		err error
	}
	done := make(chan result, 1)
	go func() {
		msg, err := c.api.CreateMessage(params)
		done <- result{msg: msg, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("twilio request abandoned: %w", ctx.Err())
	case r := <-done:
		if r.err != nil {
			return "", r.err
		}
		if r.msg == nil || r.msg.Sid == nil {
			return "", errors.New("twilio returned no message sid")
		}
		return *r.msg.Sid, nil
	}
}

// NormalizeNumber strips formatting from a phone number and returns it in
// the "whatsapp:+<digits>" form Twilio expects
func NormalizeNumber(phone string) (string, error) {
	raw := strings.TrimPrefix(strings.TrimSpace(phone), channelPrefix)

	var digits strings.Builder
	for _, r := range raw {
		if unicode.IsDigit(r) {
			digits.WriteRune(r)
		}
	}

	// E.164 allows at most 15 digits and never starts with 0
	d := digits.String()
	if len(d) < 8 || len(d) > 15 || d[0] == '0' {
		return "", apperr.Malformed("whatsapp.normalize", "phone number %q is not in international format", phone)
	}
	return channelPrefix + "+" + d, nil
}

func withChannelPrefix(number string) string {
	if strings.HasPrefix(number, channelPrefix) {
		return number
	}
	return channelPrefix + number
}

// classify maps Twilio errors onto error kinds. Authentication failures make
// the channel unusable for the rest of the run.
func classify(err error) error {
	var restErr *twilioclient.TwilioRestError
	if errors.As(err, &restErr) && (restErr.Status == 401 || restErr.Code == 20003) {
		return apperr.New(apperr.KindConfiguration, "whatsapp.send", err)
	}
	return apperr.Transient("whatsapp.send", err)
}
