package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	utls "github.com/refraction-networking/utls"

	"github.com/pedrogrisolia/maps-business-finder/internal/model"
)

const nominatimBaseURL = "https://nominatim.openstreetmap.org/search"

// LookupClient resolves free-text address queries to coordinate
// candidates via the OSM Nominatim API. Outbound TLS uses a Chrome
// fingerprint so lookup traffic blends in with the browser session's.
type LookupClient struct {
	http    *http.Client
	baseURL string
}

func NewLookupClient() *LookupClient {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}

			host, _, err := net.SplitHostPort(addr)
			if err != nil {
				host = addr
			}

			// Chrome TLS spec, forced to HTTP/1.1 ALPN
			spec, err := utls.UTLSIdToSpec(utls.HelloChrome_Auto)
			if err != nil {
				conn.Close()
				return nil, err
			}
			for i, ext := range spec.Extensions {
				if alpn, ok := ext.(*utls.ALPNExtension); ok {
					alpn.AlpnProtocols = []string{"http/1.1"}
					spec.Extensions[i] = alpn
					break
				}
			}

			tlsConn := utls.UClient(conn, &utls.Config{
				ServerName: host,
			}, utls.HelloCustom)
			if err := tlsConn.ApplyPreset(&spec); err != nil {
				conn.Close()
				return nil, err
			}
			if err := tlsConn.HandshakeContext(ctx); err != nil {
				conn.Close()
				return nil, err
			}

			return tlsConn, nil
		},
		IdleConnTimeout: 90 * time.Second,
	}

	return &LookupClient{
		http: &http.Client{
			Transport: transport,
			Timeout:   15 * time.Second,
		},
		baseURL: nominatimBaseURL,
	}
}

type nominatimResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
	Address     struct {
		City    string `json:"city"`
		Town    string `json:"town"`
		State   string `json:"state"`
		Country string `json:"country"`
	} `json:"address"`
}

// Search resolves query to up to limit coordinate candidates.
func (c *LookupClient) Search(ctx context.Context, query string, limit int) ([]model.Coordinate, error) {
	if limit <= 0 {
		limit = 5
	}

	u := c.baseURL + "?" + url.Values{
		"q":              {query},
		"format":         {"json"},
		"addressdetails": {"1"},
		"limit":          {strconv.Itoa(limit)},
	}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("building lookup request: %w", err)
	}
	req.Header.Set("User-Agent", "maps-business-finder/1.0 (business listing scanner)")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("lookup request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("lookup returned status %d", resp.StatusCode)
	}

	var raw []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding lookup response: %w", err)
	}

	coords := make([]model.Coordinate, 0, len(raw))
	for _, r := range raw {
		lat, errLat := strconv.ParseFloat(r.Lat, 64)
		lng, errLng := strconv.ParseFloat(r.Lon, 64)
		if errLat != nil || errLng != nil || !ValidCoordinate(lat, lng) {
			continue
		}
		city := r.Address.City
		if city == "" {
			city = r.Address.Town
		}
		coords = append(coords, model.Coordinate{
			Label:   r.DisplayName,
			Lat:     lat,
			Lng:     lng,
			City:    city,
			State:   r.Address.State,
			Country: r.Address.Country,
		})
	}

	if len(coords) == 0 {
		return nil, fmt.Errorf("address %q not found", query)
	}

	return coords, nil
}
