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

// IPDetails holds registry-level facts about an address
type IPDetails struct {
	IP          string `json:"ip"`
	IPNumber    string `json:"ip_number"`
	IPVersion   string `json:"ip_version"`
	CountryName string `json:"country_name"`
	CountryCode string `json:"country_code2"`
	ISP         string `json:"isp"`
}

// IPLocation holds geolocation facts about an address
type IPLocation struct {
	Query    string `json:"query"`
	Country  string `json:"country"`
	City     string `json:"city"`
	Zip      string `json:"zip"`
	ISP      string `json:"isp"`
	Org      string `json:"org"`
	Timezone string `json:"timezone"`
	AS       string `json:"as"`
}

// IPInfoService queries IP detail and geolocation providers
type IPInfoService struct {
	detailURL string
	locateURL string
	client    *http.Client
	log       zerolog.Logger
}

// NewIPInfoService creates a new IP info service
func NewIPInfoService(cfg *config.CommandsConfig, log zerolog.Logger) *IPInfoService {
	return &IPInfoService{
		detailURL: cfg.IPDetailAPIURL,
		locateURL: cfg.IPLocateAPIURL,
		client: &http.Client{
			Timeout: config.Duration(cfg.Timeout, 15*time.Second),
		},
		log: log.With().Str("component", "ipinfo").Logger(),
	}
}

// Details returns registry information for an IP address
func (s *IPInfoService) Details(ctx context.Context, ipaddress string) (*IPDetails, error) {
	apiURL, err := url.Parse(s.detailURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API URL: %w", err)
	}
	params := url.Values{}
	params.Add("ip", ipaddress)
	apiURL.RawQuery = params.Encode()

	var payload struct {
		IPDetails
		ResponseCode string `json:"response_code"`
	}
	if err := s.getJSON(ctx, apiURL.String(), &payload); err != nil {
		return nil, err
	}
	if payload.ResponseCode != "200" {
		return nil, fmt.Errorf("ip detail API returned response code %s", payload.ResponseCode)
	}
	return &payload.IPDetails, nil
}

// Location returns geolocation information for an IP address
func (s *IPInfoService) Location(ctx context.Context, ipaddress string) (*IPLocation, error) {
	var payload struct {
		IPLocation
		Status string `json:"status"`
	}
	if err := s.getJSON(ctx, fmt.Sprintf("%s/%s", s.locateURL, url.PathEscape(ipaddress)), &payload); err != nil {
		return nil, err
	}
	if payload.Status != "success" {
		return nil, fmt.Errorf("ip location API returned status %q", payload.Status)
	}
	return &payload.IPLocation, nil
}

func (s *IPInfoService) getJSON(ctx context.Context, rawURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.log.Warn().Err(err).Msg("ip info API request failed")
		return fmt.Errorf("failed to query ip info API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ip info API returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse ip info response: %w", err)
	}
	return nil
}
