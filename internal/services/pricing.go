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

// OrderType selects which price column a registrar query sorts by.
// The value is resolved at the boundary; services only ever see one of
// the three constants.
type OrderType string

const (
	OrderNew      OrderType = "new"
	OrderRenew    OrderType = "renew"
	OrderTransfer OrderType = "transfer"
)

// ParseOrder resolves raw input to an OrderType
func ParseOrder(raw string) (OrderType, error) {
	switch OrderType(raw) {
	case OrderNew, OrderRenew, OrderTransfer:
		return OrderType(raw), nil
	default:
		return "", fmt.Errorf("unknown order type: %s", raw)
	}
}

// RegistrarPrice is one row of a pricing result
type RegistrarPrice struct {
	Domain       string      `json:"domain,omitempty"`
	Registrar    string      `json:"registrar,omitempty"`
	RegistrarWeb string      `json:"registrarweb,omitempty"`
	New          json.Number `json:"new"`
	Renew        json.Number `json:"renew"`
	Transfer     json.Number `json:"transfer"`
	Currency     string      `json:"currency"`
}

// PricingResult is a priced listing for one TLD or one registrar
type PricingResult struct {
	Domain       string           `json:"domain,omitempty"`
	Registrar    string           `json:"registrar,omitempty"`
	RegistrarWeb string           `json:"registrarweb,omitempty"`
	Order        string           `json:"order"`
	Prices       []RegistrarPrice `json:"prices"`
}

// PricingService queries the domain pricing API
type PricingService struct {
	apiURL string
	client *http.Client
	log    zerolog.Logger
}

// NewPricingService creates a new pricing service
func NewPricingService(cfg *config.CommandsConfig, log zerolog.Logger) *PricingService {
	return &PricingService{
		apiURL: cfg.PricingAPIURL,
		client: &http.Client{
			Timeout: config.Duration(cfg.Timeout, 15*time.Second),
		},
		log: log.With().Str("component", "pricing").Logger(),
	}
}

// Cheapest returns the cheapest registrars for a TLD
func (s *PricingService) Cheapest(ctx context.Context, tld string, order OrderType) (*PricingResult, error) {
	params := url.Values{}
	params.Add("domain", tld)
	params.Add("order", string(order))
	return s.query(ctx, params)
}

// ByRegistrar returns domain prices offered by a single registrar
func (s *PricingService) ByRegistrar(ctx context.Context, registrar string, order OrderType) (*PricingResult, error) {
	params := url.Values{}
	params.Add("registrar", registrar)
	params.Add("order", string(order))
	return s.query(ctx, params)
}

func (s *PricingService) query(ctx context.Context, params url.Values) (*PricingResult, error) {
	apiURL, err := url.Parse(s.apiURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API URL: %w", err)
	}
	apiURL.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL.String(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.log.Warn().Err(err).Msg("pricing API request failed")
		return nil, fmt.Errorf("failed to query pricing API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pricing API returned status %d", resp.StatusCode)
	}

	var apiResponse struct {
		Code int `json:"code"`
		Data *struct {
			Domain       string           `json:"domain"`
			Registrar    string           `json:"registrar"`
			RegistrarWeb string           `json:"registrarweb"`
			Order        string           `json:"order"`
			Price        []RegistrarPrice `json:"price"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return nil, fmt.Errorf("failed to parse pricing response: %w", err)
	}

	if apiResponse.Code != 100 || apiResponse.Data == nil || len(apiResponse.Data.Price) == 0 {
		return nil, fmt.Errorf("pricing API returned no prices")
	}

	data := apiResponse.Data
	prices := data.Price
	if len(prices) > 5 {
		prices = prices[:5]
	}
	return &PricingResult{
		Domain:       data.Domain,
		Registrar:    data.Registrar,
		RegistrarWeb: data.RegistrarWeb,
		Order:        data.Order,
		Prices:       prices,
	}, nil
}
