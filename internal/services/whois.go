package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/likexian/whois"
	whoisparser "github.com/likexian/whois-parser"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/JianyueLab/JianyueBOT/internal/config"
	"github.com/JianyueLab/JianyueBOT/internal/models"
)

// ErrInvalidDomain is returned before any network call when the input
// does not match the DNS label grammar.
var ErrInvalidDomain = errors.New("invalid domain format")

// WhoisService handles WHOIS lookups. When no API URL is configured it
// falls back to a direct port-43 query.
type WhoisService struct {
	apiURL   string
	apiToken string
	client   *http.Client
	limiter  *rate.Limiter
	log      zerolog.Logger
}

// NewWhoisService creates a new WHOIS service
func NewWhoisService(cfg *config.WhoisConfig, log zerolog.Logger) *WhoisService {
	perMinute := cfg.RatePerMinute
	if perMinute <= 0 {
		perMinute = 30
	}
	return &WhoisService{
		apiURL:   cfg.APIURL,
		apiToken: cfg.APIToken,
		client: &http.Client{
			Timeout: config.Duration(cfg.Timeout, 30*time.Second),
		},
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute),
		log:     log.With().Str("component", "whois").Logger(),
	}
}

// NormalizeDomain reduces raw input to the canonical form used for
// storage and comparison: lowercase, scheme and www prefix stripped,
// one trailing slash stripped.
func NormalizeDomain(raw string) string {
	domain := strings.ToLower(strings.TrimSpace(raw))
	domain = strings.TrimPrefix(domain, "http://")
	domain = strings.TrimPrefix(domain, "https://")
	domain = strings.TrimPrefix(domain, "www.")
	domain = strings.TrimSuffix(domain, "/")
	return domain
}

// ValidateDomain reports whether domain matches the DNS label grammar:
// dot-separated labels of 1-63 letters, digits, and hyphens, with no
// label starting or ending with a hyphen, and at most 253 characters
// overall. It expects the normalized form.
func ValidateDomain(domain string) bool {
	if domain == "" || len(domain) > 253 {
		return false
	}
	labels := strings.Split(domain, ".")
	if len(labels) < 2 {
		return false
	}
	for _, label := range labels {
		if len(label) == 0 || len(label) > 63 {
			return false
		}
		if label[0] == '-' || label[len(label)-1] == '-' {
			return false
		}
		for i := 0; i < len(label); i++ {
			c := label[i]
			if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '-' {
				continue
			}
			return false
		}
	}
	return true
}

// Lookup queries the WHOIS provider for a domain. The input is
// normalized and validated first; invalid input is rejected without a
// network call. Any transport or provider error collapses into a single
// failure outcome with the cause logged here.
func (s *WhoisService) Lookup(ctx context.Context, domain string) (*models.WhoisInfo, error) {
	normalized := NormalizeDomain(domain)
	if !ValidateDomain(normalized) {
		return nil, ErrInvalidDomain
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var info *models.WhoisInfo
	var err error
	if s.apiURL != "" {
		info, err = s.queryAPI(ctx, normalized)
	} else {
		info, err = s.queryDirect(normalized)
	}
	if err != nil {
		s.log.Warn().Str("domain", normalized).Err(err).Msg("whois lookup failed")
		return nil, fmt.Errorf("whois lookup for %s: %w", normalized, err)
	}

	info.Domain = normalized
	return info, nil
}

// whoisPayload mirrors the provider response. Every field is nullable;
// absent fields stay absent instead of being probed one by one.
type whoisPayload struct {
	Domain         string  `json:"domain"`
	Registrar      *string `json:"registrar"`
	CreationDate   *string `json:"creationDate"`
	UpdatedDate    *string `json:"updatedDate"`
	ExpirationDate *string `json:"expirationDate"`
	Registrant     *struct {
		Organization *string `json:"organization"`
		Country      *string `json:"country"`
	} `json:"registrant"`
	NameServers []string `json:"nameServers"`
	Status      []string `json:"status"`
	DNSSEC      *string  `json:"dnssec"`
}

// queryAPI queries the HTTP JSON provider
func (s *WhoisService) queryAPI(ctx context.Context, domain string) (*models.WhoisInfo, error) {
	apiURL, err := url.Parse(s.apiURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API URL: %w", err)
	}

	params := url.Values{}
	params.Add("domain", domain)
	apiURL.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL.String(), nil)
	if err != nil {
		return nil, err
	}
	if s.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiToken)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query WHOIS API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("WHOIS API returned status %d", resp.StatusCode)
	}

	var apiResponse struct {
		Code int           `json:"code"`
		Msg  string        `json:"msg"`
		Data *whoisPayload `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return nil, fmt.Errorf("failed to parse WHOIS response: %w", err)
	}

	if apiResponse.Code != 0 {
		return nil, fmt.Errorf("WHOIS API error: %s", apiResponse.Msg)
	}
	if apiResponse.Data == nil {
		return nil, fmt.Errorf("no data in WHOIS response")
	}

	payload := apiResponse.Data
	info := &models.WhoisInfo{
		Registrar:      strOr(payload.Registrar),
		CreationDate:   strOr(payload.CreationDate),
		UpdatedDate:    strOr(payload.UpdatedDate),
		ExpirationDate: strOr(payload.ExpirationDate),
		NameServers:    payload.NameServers,
		Status:         payload.Status,
		DNSSEC:         strOr(payload.DNSSEC),
	}
	if payload.Registrant != nil {
		info.RegistrantOrganization = strOr(payload.Registrant.Organization)
		info.RegistrantCountry = strOr(payload.Registrant.Country)
	}
	return info, nil
}

// queryDirect performs a port-43 lookup and parses the raw record
func (s *WhoisService) queryDirect(domain string) (*models.WhoisInfo, error) {
	raw, err := whois.Whois(domain)
	if err != nil {
		return nil, fmt.Errorf("whois query failed: %w", err)
	}

	parsed, err := whoisparser.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("whois parse failed: %w", err)
	}

	info := &models.WhoisInfo{}
	if parsed.Domain != nil {
		info.CreationDate = parsed.Domain.CreatedDate
		info.UpdatedDate = parsed.Domain.UpdatedDate
		info.ExpirationDate = parsed.Domain.ExpirationDate
		info.NameServers = parsed.Domain.NameServers
		info.Status = parsed.Domain.Status
		if parsed.Domain.DNSSec {
			info.DNSSEC = "signedDelegation"
		}
	}
	if parsed.Registrar != nil {
		info.Registrar = parsed.Registrar.Name
	}
	if parsed.Registrant != nil {
		info.RegistrantOrganization = parsed.Registrant.Organization
		info.RegistrantCountry = parsed.Registrant.Country
	}
	return info, nil
}

func strOr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
