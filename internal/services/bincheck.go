package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/JianyueLab/JianyueBOT/internal/config"
)

// ErrBinCheckDisabled is returned when no API key is configured
var ErrBinCheckDisabled = errors.New("bin check API key not configured")

// BinInfo describes the card range behind a BIN
type BinInfo struct {
	Valid        bool   `json:"valid"`
	Brand        string `json:"brand,omitempty"`
	Type         string `json:"type,omitempty"`
	Level        string `json:"level,omitempty"`
	IsCommercial bool   `json:"is_commercial"`
	IsPrepaid    bool   `json:"is_prepaid"`
	Currency     string `json:"currency,omitempty"`
	Issuer       string `json:"issuer,omitempty"`
	Country      string `json:"country,omitempty"`
	CountryFlag  string `json:"flag,omitempty"`
}

// BinCheckService queries the BIN lookup API
type BinCheckService struct {
	apiURL string
	apiKey string
	client *http.Client
	log    zerolog.Logger
}

// NewBinCheckService creates a new BIN check service
func NewBinCheckService(cfg *config.CommandsConfig, log zerolog.Logger) *BinCheckService {
	return &BinCheckService{
		apiURL: cfg.BinCheckAPIURL,
		apiKey: cfg.BinCheckAPIKey,
		client: &http.Client{
			Timeout: config.Duration(cfg.Timeout, 15*time.Second),
		},
		log: log.With().Str("component", "bincheck").Logger(),
	}
}

// Check looks up issuer and country information for a BIN
func (s *BinCheckService) Check(ctx context.Context, bin int) (*BinInfo, error) {
	if s.apiKey == "" {
		return nil, ErrBinCheckDisabled
	}

	body, err := json.Marshal(map[string]interface{}{"bin": []int{bin}})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-rapidapi-key", s.apiKey)
	req.Header.Set("x-rapidapi-host", "bin-ip-checker.p.rapidapi.com")

	resp, err := s.client.Do(req)
	if err != nil {
		s.log.Warn().Err(err).Msg("bin check API request failed")
		return nil, fmt.Errorf("failed to query bin check API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bin check API returned status %d", resp.StatusCode)
	}

	var apiResponse struct {
		Code int `json:"code"`
		BIN  *struct {
			Valid        bool   `json:"valid"`
			Brand        string `json:"brand"`
			Type         string `json:"type"`
			Level        string `json:"level"`
			IsCommercial bool   `json:"is_commercial"`
			IsPrepaid    bool   `json:"is_prepaid"`
			Currency     string `json:"currency"`
			Issuer       *struct {
				Name string `json:"name"`
			} `json:"issuer"`
			Country *struct {
				Name string `json:"name"`
				Flag string `json:"flag"`
			} `json:"country"`
		} `json:"BIN"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return nil, fmt.Errorf("failed to parse bin check response: %w", err)
	}

	if apiResponse.Code != 200 || apiResponse.BIN == nil {
		return nil, fmt.Errorf("bin check API returned no data")
	}

	payload := apiResponse.BIN
	info := &BinInfo{
		Valid:        payload.Valid,
		Brand:        payload.Brand,
		Type:         payload.Type,
		Level:        payload.Level,
		IsCommercial: payload.IsCommercial,
		IsPrepaid:    payload.IsPrepaid,
		Currency:     payload.Currency,
	}
	if payload.Issuer != nil {
		info.Issuer = payload.Issuer.Name
	}
	if payload.Country != nil {
		info.Country = payload.Country.Name
		info.CountryFlag = payload.Country.Flag
	}
	return info, nil
}
