package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/proxy"

	"github.com/JianyueLab/JianyueBOT/internal/config"
	"github.com/JianyueLab/JianyueBOT/internal/models"
)

// ErrRecipientBlocked signals that the recipient refuses direct
// delivery; callers fall back to the shared channel.
var ErrRecipientBlocked = errors.New("recipient blocked direct delivery")

// Messenger delivers a structured report either directly to a user or
// into a shared channel with a reference to the user.
type Messenger interface {
	SendDirect(ctx context.Context, userID string, report *models.Report) error
	SendChannel(ctx context.Context, channelID, userRef string, report *models.Report) error
}

// BotMessenger posts reports through a bot-API-style HTTP endpoint. An
// optional SOCKS5 proxy is supported for networks where the API is not
// directly reachable.
type BotMessenger struct {
	apiBase string
	token   string
	client  *http.Client
	log     zerolog.Logger
}

// NewBotMessenger creates a new bot messenger
func NewBotMessenger(cfg *config.NotifyConfig, log zerolog.Logger) *BotMessenger {
	client := &http.Client{
		Timeout: config.Duration(cfg.Timeout, 30*time.Second),
	}

	if cfg.Proxy != "" {
		dialer, err := proxy.SOCKS5("tcp", cfg.Proxy, nil, proxy.Direct)
		if err != nil {
			log.Warn().Err(err).Str("proxy", cfg.Proxy).Msg("failed to create SOCKS5 proxy, sending directly")
		} else {
			client.Transport = &http.Transport{
				DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
					return dialer.Dial(network, addr)
				},
			}
		}
	}

	return &BotMessenger{
		apiBase: strings.TrimSuffix(cfg.APIBase, "/"),
		token:   cfg.BotToken,
		client:  client,
		log:     log.With().Str("component", "messenger").Logger(),
	}
}

// SendDirect delivers the report to the user's own chat
func (m *BotMessenger) SendDirect(ctx context.Context, userID string, report *models.Report) error {
	return m.sendMessage(ctx, userID, renderReport(report, ""))
}

// SendChannel delivers the report to the shared channel, prefixed with a
// reference to the user it concerns
func (m *BotMessenger) SendChannel(ctx context.Context, channelID, userRef string, report *models.Report) error {
	return m.sendMessage(ctx, channelID, renderReport(report, userRef))
}

func (m *BotMessenger) sendMessage(ctx context.Context, chatID, text string) error {
	apiURL := fmt.Sprintf("%s/bot%s/sendMessage", m.apiBase, m.token)

	payload := map[string]interface{}{
		"chat_id": chatID,
		"text":    text,
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden {
		return ErrRecipientBlocked
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("messenger API returned status %d", resp.StatusCode)
	}
	return nil
}

// renderReport flattens a structured report into message text. When
// userRef is set it leads the body so channel readers know who the
// report is for.
func renderReport(report *models.Report, userRef string) string {
	var b strings.Builder
	b.WriteString(report.Title)
	b.WriteString("\n\n")
	if userRef != "" {
		b.WriteString(userRef)
		b.WriteString(": ")
	}
	b.WriteString(report.Body)
	b.WriteString("\n")
	for _, field := range report.Fields {
		b.WriteString("\n")
		b.WriteString(field.Name)
		b.WriteString("\n")
		b.WriteString(field.Value)
		b.WriteString("\n")
	}
	if report.Footer != "" {
		b.WriteString("\n")
		b.WriteString(report.Footer)
	}
	return b.String()
}
