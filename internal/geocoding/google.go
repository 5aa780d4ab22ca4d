package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/foxxcyber/food-finder/internal/geo"
	"github.com/foxxcyber/food-finder/internal/models"
)

const (
	geocodeAPIURL        = "https://maps.googleapis.com/maps/api/geocode/json"
	defaultClientTimeout = 10 * time.Second

	// listings are US-only; results elsewhere are never useful
	countryFilter = "country:US"
)

var (
	ErrAPIError       = errors.New("google maps api error")
	ErrInvalidAPIKey  = errors.New("invalid or missing api key")
	ErrRequestDenied  = errors.New("request denied by google api")
	ErrOverQueryLimit = fmt.Errorf("over query limit: %w", ErrTransient)
	ErrInvalidRequest = errors.New("invalid request")
)

// googleStatus maps non-OK API statuses to errors
var googleStatus = map[string]error{
	"ZERO_RESULTS":     ErrNoResults,
	"OVER_QUERY_LIMIT": ErrOverQueryLimit,
	"OVER_DAILY_LIMIT": ErrOverQueryLimit,
	"UNKNOWN_ERROR":    ErrTransient,
	"REQUEST_DENIED":   ErrRequestDenied,
	"INVALID_REQUEST":  ErrInvalidRequest,
}

// GoogleProvider talks to the Google Maps Geocoding API
type GoogleProvider struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
}

// Result is the best match for a forward or reverse lookup
type Result struct {
	FormattedAddress string         `json:"formatted_address"`
	PlaceID          string         `json:"place_id"`
	Point            geo.LatLng     `json:"coordinates"`
	Address          models.Address `json:"address"`
}

type googleResponse struct {
	Status       string         `json:"status"`
	ErrorMessage string         `json:"error_message,omitempty"`
	Results      []googleResult `json:"results"`
}

type googleResult struct {
	FormattedAddress string `json:"formatted_address"`
	PlaceID          string `json:"place_id"`
	Geometry         struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
	Components []struct {
		LongName  string   `json:"long_name"`
		ShortName string   `json:"short_name"`
		Types     []string `json:"types"`
	} `json:"address_components"`
}

// address folds Google's typed components into a listing address. Street is
// number plus route; the state is the two-letter short name.
func (r *googleResult) address() models.Address {
	var a models.Address
	var number, route string
	for _, c := range r.Components {
		for _, t := range c.Types {
			switch t {
			case "street_number":
				number = c.LongName
			case "route":
				route = c.ShortName
			case "locality":
				a.City = c.LongName
			case "sublocality":
				if a.City == "" {
					a.City = c.LongName
				}
			case "administrative_area_level_1":
				a.State = c.ShortName
			case "postal_code":
				a.ZipCode = c.LongName
			}
		}
	}
	a.Street = strings.TrimSpace(number + " " + route)
	return a
}

func NewGoogleProvider(apiKey string) *GoogleProvider {
	return NewGoogleProviderWithURL(apiKey, geocodeAPIURL)
}

// NewGoogleProviderWithURL points the provider at a different endpoint
func NewGoogleProviderWithURL(apiKey, endpoint string) *GoogleProvider {
	return &GoogleProvider{
		apiKey:     apiKey,
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: defaultClientTimeout},
	}
}

// Resolve implements Provider
func (s *GoogleProvider) Resolve(ctx context.Context, text string) (geo.LatLng, error) {
	r, err := s.Geocode(ctx, text)
	if err != nil {
		return geo.LatLng{}, err
	}
	return r.Point, nil
}

// Geocode looks up a US address. A bare ZIP is sent as a postal_code
// component so Google does not match a street number or a foreign code.
func (s *GoogleProvider) Geocode(ctx context.Context, text string) (*Result, error) {
	params := url.Values{}
	if zip, ok := bareZip(text); ok {
		params.Set("components", "postal_code:"+zip+"|"+countryFilter)
	} else {
		params.Set("address", text)
		params.Set("components", countryFilter)
	}
	return s.query(ctx, params)
}

// ReverseGeocode returns the street address nearest a point
func (s *GoogleProvider) ReverseGeocode(ctx context.Context, lat, lng float64) (*Result, error) {
	p := geo.LatLng{Latitude: lat, Longitude: lng}
	if !p.Valid() {
		return nil, fmt.Errorf("%w: coordinates out of range", ErrInvalidRequest)
	}
	params := url.Values{}
	params.Set("latlng", strconv.FormatFloat(lat, 'f', 6, 64)+","+strconv.FormatFloat(lng, 'f', 6, 64))
	params.Set("result_type", "street_address|premise")
	return s.query(ctx, params)
}

func bareZip(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if len(text) == 10 && text[5] == '-' {
		text = text[:5]
	}
	if len(text) != 5 {
		return "", false
	}
	for _, r := range text {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	return text, true
}

func (s *GoogleProvider) query(ctx context.Context, params url.Values) (*Result, error) {
	if s.apiKey == "" {
		return nil, ErrInvalidAPIKey
	}
	params.Set("key", s.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %w", ErrTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%w: http %d: %w", ErrAPIError, resp.StatusCode, ErrTransient)
	}

	var body googleResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %w", ErrAPIError, err)
	}
	if err := statusError(body.Status, body.ErrorMessage); err != nil {
		return nil, err
	}
	if len(body.Results) == 0 {
		return nil, ErrNoResults
	}

	best := &body.Results[0]
	return &Result{
		FormattedAddress: best.FormattedAddress,
		PlaceID:          best.PlaceID,
		Point:            geo.LatLng{Latitude: best.Geometry.Location.Lat, Longitude: best.Geometry.Location.Lng},
		Address:          best.address(),
	}, nil
}

func statusError(status, message string) error {
	if status == "OK" {
		return nil
	}
	err, known := googleStatus[status]
	if !known {
		err = fmt.Errorf("%w: %s", ErrAPIError, status)
	}
	if message != "" {
		return fmt.Errorf("%w: %s", err, message)
	}
	return err
}
