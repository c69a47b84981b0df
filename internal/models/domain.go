package models

import (
	"time"
)

// WatchedDomain is one domain tracked for one user. The WHOIS-sourced
// fields are cached provider data and may be stale relative to the live
// registry; an empty string means the provider did not report the field.
type WatchedDomain struct {
	Domain        string    `json:"domain"` // normalized lowercase host
	AddedAt       time.Time `json:"addedAt"`
	LastCheckedAt time.Time `json:"lastCheckedAt"`

	Registrar      string `json:"registrar,omitempty"`
	CreationDate   string `json:"creationDate,omitempty"`
	UpdatedDate    string `json:"updatedDate,omitempty"`
	ExpirationDate string `json:"expirationDate,omitempty"`

	RegistrantOrganization string   `json:"registrantOrganization,omitempty"`
	RegistrantCountry      string   `json:"registrantCountry,omitempty"`
	NameServers            []string `json:"nameServers,omitempty"`
	Status                 []string `json:"status,omitempty"`
	DNSSEC                 string   `json:"dnssec,omitempty"`
}

// ApplyWhois overwrites the cached provider fields from a fresh lookup
// and stamps the check time.
func (d *WatchedDomain) ApplyWhois(info *WhoisInfo, now time.Time) {
	d.Registrar = info.Registrar
	d.CreationDate = info.CreationDate
	d.UpdatedDate = info.UpdatedDate
	d.ExpirationDate = info.ExpirationDate
	d.RegistrantOrganization = info.RegistrantOrganization
	d.RegistrantCountry = info.RegistrantCountry
	d.NameServers = info.NameServers
	d.Status = info.Status
	d.DNSSEC = info.DNSSEC
	d.LastCheckedAt = now
}

// WatchList maps a user identifier to that user's ordered watch entries.
type WatchList map[string][]WatchedDomain

// WhoisInfo is the normalized result of one provider lookup. Every field
// is optional; an empty value means the provider omitted it.
type WhoisInfo struct {
	Domain                 string   `json:"domain"`
	Registrar              string   `json:"registrar,omitempty"`
	CreationDate           string   `json:"creationDate,omitempty"`
	UpdatedDate            string   `json:"updatedDate,omitempty"`
	ExpirationDate         string   `json:"expirationDate,omitempty"`
	RegistrantOrganization string   `json:"registrantOrganization,omitempty"`
	RegistrantCountry      string   `json:"registrantCountry,omitempty"`
	NameServers            []string `json:"nameServers,omitempty"`
	Status                 []string `json:"status,omitempty"`
	DNSSEC                 string   `json:"dnssec,omitempty"`
}

// ExpiringDomain pairs a watched domain with its computed days until
// expiry for one evaluation cycle.
type ExpiringDomain struct {
	WatchedDomain
	DaysLeft int `json:"daysLeft"`
}

// ReportField is one name/value section of a delivery report.
type ReportField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Report is the structured notification payload handed to a messenger.
type Report struct {
	Title  string        `json:"title"`
	Body   string        `json:"body"`
	Fields []ReportField `json:"fields,omitempty"`
	Footer string        `json:"footer,omitempty"`
}
