package emergency

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Location is a coarse position from IP geolocation. Loc is
// "lat,long" as ipinfo reports it.
type Location struct {
	City    string `json:"city"`
	Region  string `json:"region"`
	Country string `json:"country"`
	Loc     string `json:"loc"`
}

// MapsLink renders the position as a link the recipient can open.
func (l Location) MapsLink() string {
	if l.Loc == "" {
		return ""
	}
	return "https://www.google.com/maps?q=" + l.Loc
}

func (l Location) Describe() string {
	switch {
	case l.City != "" && l.Region != "":
		return l.City + ", " + l.Region
	case l.City != "":
		return l.City
	default:
		return "unknown area"
	}
}

// IPLocator resolves the caller's approximate position via ipinfo. An
// SOS with a rough location beats one with none, so failures here are
// tolerated by the dispatcher.
type IPLocator struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewIPLocator(baseURL, token string) *IPLocator {
	if baseURL == "" {
		baseURL = "https://ipinfo.io"
	}
	return &IPLocator{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

func (l *IPLocator) Locate(ctx context.Context) (*Location, error) {
	url := l.baseURL + "/json"
	if l.token != "" {
		url += "?token=" + l.token
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build locate request: %w", err)
	}

	resp, err := l.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geolocation lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geolocation lookup: status %d", resp.StatusCode)
	}

	var loc Location
	if err := json.NewDecoder(resp.Body).Decode(&loc); err != nil {
		return nil, fmt.Errorf("parse geolocation response: %w", err)
	}
	return &loc, nil
}
