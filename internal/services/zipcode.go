package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/JianyueLab/JianyueBOT/internal/config"
)

// Address is one postal-code lookup result
type Address struct {
	Address1 string `json:"address1"`
	Address2 string `json:"address2"`
	Address3 string `json:"address3"`
	Kana1    string `json:"kana1"`
	Kana2    string `json:"kana2"`
	Kana3    string `json:"kana3"`
}

// ZipcodeService looks up addresses by postal code. Only Japan is
// supported by the upstream provider.
type ZipcodeService struct {
	apiURL string
	client *http.Client
	log    zerolog.Logger
}

// NewZipcodeService creates a new zipcode service
func NewZipcodeService(cfg *config.CommandsConfig, log zerolog.Logger) *ZipcodeService {
	return &ZipcodeService{
		apiURL: cfg.ZipcodeAPIURL,
		client: &http.Client{
			Timeout: config.Duration(cfg.Timeout, 15*time.Second),
		},
		log: log.With().Str("component", "zipcode").Logger(),
	}
}

// Search looks up the address for a postal code in the given country
func (s *ZipcodeService) Search(ctx context.Context, country, zipcode string) (*Address, error) {
	if !strings.EqualFold(country, "JP") {
		return nil, fmt.Errorf("unsupported country: %s", country)
	}

	apiURL, err := url.Parse(s.apiURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API URL: %w", err)
	}
	params := url.Values{}
	params.Add("zipcode", zipcode)
	apiURL.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL.String(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.log.Warn().Err(err).Msg("zipcode API request failed")
		return nil, fmt.Errorf("failed to query zipcode API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("zipcode API returned status %d", resp.StatusCode)
	}

	var apiResponse struct {
		Status  int       `json:"status"`
		Results []Address `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return nil, fmt.Errorf("failed to parse zipcode response: %w", err)
	}

	if apiResponse.Status != 200 || len(apiResponse.Results) == 0 {
		return nil, fmt.Errorf("no address found for zipcode %s", zipcode)
	}
	return &apiResponse.Results[0], nil
}
