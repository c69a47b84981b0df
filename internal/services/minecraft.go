package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/JianyueLab/JianyueBOT/internal/config"
)

// ServerType selects the Minecraft server edition to query
type ServerType string

const (
	ServerJava    ServerType = "java"
	ServerBedrock ServerType = "bedrock"
)

// ParseServerType resolves raw input to a ServerType
func ParseServerType(raw string) (ServerType, error) {
	switch ServerType(raw) {
	case ServerJava, ServerBedrock:
		return ServerType(raw), nil
	default:
		return "", fmt.Errorf("unknown server type: %s", raw)
	}
}

// MinecraftStatus is the online state of one server
type MinecraftStatus struct {
	IP         string   `json:"ip"`
	Port       int      `json:"port"`
	Hostname   string   `json:"hostname,omitempty"`
	Version    string   `json:"version,omitempty"`
	MOTD       []string `json:"motd,omitempty"`
	SRV        bool     `json:"srv"`
	Players    int      `json:"players"`
	MaxPlayers int      `json:"maxPlayers"`
}

// MinecraftService queries the server status API
type MinecraftService struct {
	apiURL string
	client *http.Client
	log    zerolog.Logger
}

// NewMinecraftService creates a new Minecraft status service
func NewMinecraftService(cfg *config.CommandsConfig, log zerolog.Logger) *MinecraftService {
	return &MinecraftService{
		apiURL: cfg.MinecraftAPIURL,
		client: &http.Client{
			Timeout: config.Duration(cfg.Timeout, 15*time.Second),
		},
		log: log.With().Str("component", "minecraft").Logger(),
	}
}

// Status returns the live status of a server, or an error when the
// server is offline or the API is unavailable
func (s *MinecraftService) Status(ctx context.Context, serverType ServerType, address string) (*MinecraftStatus, error) {
	var queryURL string
	switch serverType {
	case ServerBedrock:
		queryURL = fmt.Sprintf("%s/bedrock/3/%s", s.apiURL, url.PathEscape(address))
	default:
		queryURL = fmt.Sprintf("%s/3/%s", s.apiURL, url.PathEscape(address))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, queryURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.log.Warn().Err(err).Msg("minecraft API request failed")
		return nil, fmt.Errorf("failed to query minecraft API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("minecraft API returned status %d", resp.StatusCode)
	}

	var payload struct {
		Online   bool   `json:"online"`
		IP       string `json:"ip"`
		Port     int    `json:"port"`
		Hostname string `json:"hostname"`
		Protocol *struct {
			Name string `json:"name"`
		} `json:"protocol"`
		MOTD *struct {
			Clean []string `json:"clean"`
		} `json:"motd"`
		Debug *struct {
			Ping bool `json:"ping"`
			SRV  bool `json:"srv"`
		} `json:"debug"`
		Players *struct {
			Online int `json:"online"`
			Max    int `json:"max"`
		} `json:"players"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to parse minecraft response: %w", err)
	}

	if !payload.Online {
		return nil, fmt.Errorf("server %s is offline", address)
	}

	status := &MinecraftStatus{
		IP:       payload.IP,
		Port:     payload.Port,
		Hostname: payload.Hostname,
	}
	if payload.Protocol != nil {
		status.Version = payload.Protocol.Name
	}
	if payload.MOTD != nil {
		status.MOTD = payload.MOTD.Clean
	}
	if payload.Debug != nil {
		status.SRV = payload.Debug.SRV
	}
	if payload.Players != nil {
		status.Players = payload.Players.Online
		status.MaxPlayers = payload.Players.Max
	}
	return status, nil
}
