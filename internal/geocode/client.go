// Package geocode resolves coordinates to street addresses through a
// Nominatim-compatible reverse-geocoding provider.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/ka-abfall/abfallbot/pkg/config"
)

// ErrNotFound indicates the provider resolved nothing for the coordinates.
var ErrNotFound = errors.New("no address found for location")

// Location is the reverse-geocoded address shown to the user for confirmation.
type Location struct {
	Street      string `json:"street"`
	HouseNumber string `json:"house_number"`
	City        string `json:"city"`
	Country     string `json:"country"`
}

// String renders the location the way it appears in confirmation messages.
func (l Location) String() string {
	out := l.Street
	if l.HouseNumber != "" {
		out += " " + l.HouseNumber
	}
	if l.City != "" {
		out += ", " + l.City
	}
	if l.Country != "" {
		out += ", " + l.Country
	}
	return out
}

// ReverseGeocoder converts a coordinate pair into an address.
type ReverseGeocoder interface {
	Reverse(ctx context.Context, lat, lon float64) (*Location, error)
}

// Client talks to a Nominatim endpoint over HTTP.
type Client struct {
	httpClient *http.Client
	endpoint   string
	userAgent  string
}

// NewClient builds a reverse-geocoding client from configuration.
func NewClient(cfg config.GeocoderConfig) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		endpoint:   cfg.Endpoint,
		userAgent:  cfg.UserAgent,
	}
}

type nominatimResponse struct {
	Error   string `json:"error"`
	Address struct {
		Road        string `json:"road"`
		Pedestrian  string `json:"pedestrian"`
		HouseNumber string `json:"house_number"`
		City        string `json:"city"`
		Town        string `json:"town"`
		Village     string `json:"village"`
		Country     string `json:"country"`
	} `json:"address"`
}

// Reverse resolves the coordinates or returns ErrNotFound when the provider
// knows no address there.
func (c *Client) Reverse(ctx context.Context, lat, lon float64) (*Location, error) {
	query := url.Values{}
	query.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	query.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	query.Set("format", "jsonv2")
	query.Set("addressdetails", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/reverse?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	// Nominatim's usage policy requires an identifying User-Agent.
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nominatim returned status %d", resp.StatusCode)
	}

	var decoded nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode nominatim response: %w", err)
	}

	if decoded.Error != "" {
		return nil, ErrNotFound
	}

	street := decoded.Address.Road
	if street == "" {
		street = decoded.Address.Pedestrian
	}
	if street == "" {
		return nil, ErrNotFound
	}

	city := decoded.Address.City
	if city == "" {
		city = decoded.Address.Town
	}
	if city == "" {
		city = decoded.Address.Village
	}

	return &Location{
		Street:      street,
		HouseNumber: decoded.Address.HouseNumber,
		City:        city,
		Country:     decoded.Address.Country,
	}, nil
}
