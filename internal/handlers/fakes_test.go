package handlers

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/foxxcyber/food-finder/internal/database"
	"github.com/foxxcyber/food-finder/internal/geo"
	"github.com/foxxcyber/food-finder/internal/models"
	"github.com/foxxcyber/food-finder/internal/search"
	"github.com/foxxcyber/food-finder/internal/services"
)

type fakeLocations struct {
	mu        sync.Mutex
	byID      map[string]*models.Location
	fetchErr  error
	probeErr  error
	connected bool
}

func newFakeLocations(locs ...*models.Location) *fakeLocations {
	f := &fakeLocations{byID: make(map[string]*models.Location), connected: true}
	for _, l := range locs {
		f.byID[l.ID] = l
	}
	return f
}

func (f *fakeLocations) all() []*models.Location {
	out := make([]*models.Location, 0, len(f.byID))
	for _, l := range f.byID {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeLocations) FindByZipRegion(ctx context.Context, zip string) ([]*models.Location, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	var out []*models.Location
	for _, l := range f.all() {
		if l.Address.ZipCode == zip[:5] {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeLocations) FindByRadius(ctx context.Context, center geo.LatLng, radiusKm float64) ([]*models.Location, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	var out []*models.Location
	for _, l := range f.all() {
		if l.Coordinates != nil && geo.MilesToKm(geo.MustDistanceMiles(center, *l.Coordinates)) <= radiusKm {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeLocations) FindByText(ctx context.Context, text string, opts search.TextSearchOptions) ([]*models.Location, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	var out []*models.Location
	needle := strings.ToLower(text)
	for _, l := range f.all() {
		if strings.Contains(strings.ToLower(l.Name), needle) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeLocations) Probe(ctx context.Context) (search.StoreHealth, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return search.StoreHealth{Connected: f.connected, RecordCount: len(f.byID)}, f.probeErr
}

func (f *fakeLocations) CreateLocation(ctx context.Context, loc *models.Location) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	loc.ID = uuid.NewString()
	loc.CreatedAt = time.Now()
	loc.UpdatedAt = loc.CreatedAt
	f.byID[loc.ID] = loc
	return nil
}

func (f *fakeLocations) GetLocationByID(ctx context.Context, id string) (*models.Location, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.byID[id]
	if !ok {
		return nil, models.ErrLocationNotFound
	}
	cp := *l
	return &cp, nil
}

func (f *fakeLocations) UpdateLocation(ctx context.Context, id string, req *models.UpdateLocationRequest) (*models.Location, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.byID[id]
	if !ok {
		return nil, models.ErrLocationNotFound
	}
	if req.Name != nil {
		l.Name = *req.Name
	}
	if req.ZipCode != nil {
		l.Address.ZipCode = *req.ZipCode
	}
	if req.Latitude != nil && req.Longitude != nil {
		l.Coordinates = &geo.LatLng{Latitude: *req.Latitude, Longitude: *req.Longitude}
	}
	if req.ClearCoordinates {
		l.Coordinates = nil
	}
	l.UpdatedAt = time.Now()
	return l, nil
}

func (f *fakeLocations) UpdateAvailability(ctx context.Context, id string, req *models.AvailabilityUpdateRequest) (*models.Location, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.byID[id]
	if !ok {
		return nil, models.ErrLocationNotFound
	}
	now := time.Now()
	l.CurrentStatus = req.CurrentStatus
	l.StatusUpdatedAt = &now
	if req.CurrentCapacity != nil {
		l.Capacity.Current = req.CurrentCapacity
	}
	return l, nil
}

func (f *fakeLocations) SetLocationStatus(ctx context.Context, id string, status models.LocationStatus, reason string) (*models.Location, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.byID[id]
	if !ok {
		return nil, models.ErrLocationNotFound
	}
	l.Status = status
	l.RejectionReason = reason
	return l, nil
}

func (f *fakeLocations) SetLocationPhoto(ctx context.Context, id, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.byID[id]
	if !ok {
		return models.ErrLocationNotFound
	}
	l.PhotoKey = key
	l.HasPhoto = key != ""
	return nil
}

func (f *fakeLocations) DeleteLocation(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return models.ErrLocationNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeLocations) ListLocations(ctx context.Context, params *models.LocationListParams) ([]*models.Location, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Location
	for _, l := range f.all() {
		if params.Status != "" && l.Status != params.Status {
			continue
		}
		if params.ProviderID != nil && (l.ProviderID == nil || *l.ProviderID != *params.ProviderID) {
			continue
		}
		out = append(out, l)
	}
	return out, len(out), nil
}

func (f *fakeLocations) GetLocationStats(ctx context.Context) (*models.LocationStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stats := &models.LocationStats{TotalLocations: len(f.byID)}
	for _, l := range f.byID {
		switch l.Status {
		case models.LocationPending:
			stats.PendingCount++
		case models.LocationApproved:
			stats.ApprovedCount++
		case models.LocationRejected:
			stats.RejectedCount++
		}
		if l.CurrentStatus == models.AvailabilityOpen {
			stats.OpenNow++
		}
	}
	return stats, nil
}

func (f *fakeLocations) ExpireStaleAvailability(ctx context.Context, maxAge time.Duration) (int64, error) {
	return 0, nil
}

type fakeUsers struct {
	mu     sync.Mutex
	byID   map[int]*models.User
	nextID int
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: make(map[int]*models.User), nextID: 1}
}

func (f *fakeUsers) CreateUser(ctx context.Context, email, passwordHash string, role models.Role, req *models.RegisterRequest) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == email {
			return nil, database.ErrEmailExists
		}
	}
	u := &models.User{ID: f.nextID, Email: email, PasswordHash: passwordHash, Role: role, Active: true}
	if req != nil {
		u.Name = req.Name
		u.Organization = req.Organization
	}
	f.byID[u.ID] = u
	f.nextID++
	return u, nil
}

func (f *fakeUsers) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, database.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUsers) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, database.ErrUserNotFound
}

func (f *fakeUsers) UpdateUserLastLogin(ctx context.Context, id int) error {
	return nil
}

func (f *fakeUsers) AdminUpdateUser(ctx context.Context, id int, req *models.AdminUpdateUserRequest) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, database.ErrUserNotFound
	}
	if req.Role != nil {
		u.Role = *req.Role
	}
	if req.Active != nil {
		u.Active = *req.Active
	}
	return u, nil
}

func (f *fakeUsers) DeleteUser(ctx context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return database.ErrUserNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeUsers) ListUsers(ctx context.Context, params *models.UserListParams) ([]*models.User, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.User, 0, len(f.byID))
	for _, u := range f.byID {
		if params.Role != "" && u.Role != params.Role {
			continue
		}
		if params.Active != nil && u.Active != *params.Active {
			continue
		}
		out = append(out, u)
	}
	return out, len(out), nil
}

func (f *fakeUsers) GetUserStats(ctx context.Context) (*models.UserStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stats := &models.UserStats{}
	for _, u := range f.byID {
		if u.Role == models.RoleProvider {
			stats.TotalProviders++
		}
	}
	return stats, nil
}

type fakeRegions struct {
	created []*models.CreateRegionRequest
	listed  []*models.RegionListParams
}

func (f *fakeRegions) ListRegions(ctx context.Context, params *models.RegionListParams) ([]*models.RegionWithStats, int, error) {
	f.listed = append(f.listed, params)
	return []*models.RegionWithStats{}, 0, nil
}

func (f *fakeRegions) GetRegionByID(ctx context.Context, id int) (*models.RegionWithStats, error) {
	return nil, database.ErrRegionNotFound
}

func (f *fakeRegions) CreateRegion(ctx context.Context, req *models.CreateRegionRequest) (*models.Region, error) {
	f.created = append(f.created, req)
	return &models.Region{ID: len(f.created), Name: req.Name, State: req.State, ZipCodes: req.ZipCodes}, nil
}

func (f *fakeRegions) UpdateRegion(ctx context.Context, id int, req *models.UpdateRegionRequest) (*models.Region, error) {
	return nil, database.ErrRegionNotFound
}

func (f *fakeRegions) DeleteRegion(ctx context.Context, id int) error {
	return database.ErrRegionNotFound
}

func (f *fakeRegions) GetDistinctStates(ctx context.Context) ([]string, error) {
	return []string{"CO"}, nil
}

func (f *fakeRegions) GetRegionSummary(ctx context.Context) (*models.RegionSummary, error) {
	return &models.RegionSummary{Regions: len(f.created)}, nil
}

func (f *fakeRegions) SearchRegions(ctx context.Context, query string, limit int) ([]*models.Region, error) {
	return []*models.Region{}, nil
}

type fakePhotos struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakePhotos() *fakePhotos {
	return &fakePhotos{objects: make(map[string][]byte)}
}

func (f *fakePhotos) UploadPhoto(ctx context.Context, locationID string, body io.Reader, size int64, contentType string) (string, error) {
	key, err := services.PhotoKey(locationID, contentType)
	if err != nil {
		return "", err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	f.objects[key] = data
	f.mu.Unlock()
	return key, nil
}

func (f *fakePhotos) OpenPhoto(ctx context.Context, key string) (*services.Photo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[key]
	if !ok {
		return nil, services.ErrPhotoNotFound
	}
	return &services.Photo{
		Body:        io.NopCloser(strings.NewReader(string(data))),
		Size:        int64(len(data)),
		ContentType: "image/png",
	}, nil
}

func (f *fakePhotos) DeletePhoto(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.objects[key]; !ok {
		return errors.New("no such object")
	}
	delete(f.objects, key)
	return nil
}
