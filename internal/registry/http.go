package registry

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/gridpoint-systems/sensor-bridge/internal/metrics"
)

const tenantHeader = "X-Tenant-ID"

// Config holds the connection settings for the registry API.
type Config struct {
	URL      string
	Token    string
	Timeout  time.Duration
	PageSize int
}

// HTTPClient implements Client against the registry's REST API.
type HTTPClient struct {
	rc       *resty.Client
	pageSize int
}

// NewHTTPClient builds a registry client with a bounded per-call
// timeout. The API token authenticates the bridge itself; tenant
// scoping travels in a header per request.
func NewHTTPClient(cfg Config) *HTTPClient {
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	rc := resty.New().
		SetBaseURL(cfg.URL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if cfg.Token != "" {
		rc.SetAuthToken(cfg.Token)
	}

	return &HTTPClient{rc: rc, pageSize: pageSize}
}

type devicePage struct {
	Items    []Device `json:"items"`
	Page     int      `json:"page"`
	PageSize int      `json:"pageSize"`
	Total    int      `json:"total"`
}

type eventPage struct {
	Items    []Event `json:"items"`
	Page     int     `json:"page"`
	PageSize int     `json:"pageSize"`
	Total    int     `json:"total"`
}

func (c *HTTPClient) request(ctx context.Context, tenantID string) *resty.Request {
	return c.rc.R().
		SetContext(ctx).
		SetHeader(tenantHeader, tenantID)
}

func observe(operation string, start time.Time) {
	metrics.RegistryCallDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func (c *HTTPClient) FindExternalID(ctx context.Context, tenantID, externalID, idType string) (*ExternalID, error) {
	defer observe("find_external_id", time.Now())

	var ext ExternalID
	resp, err := c.request(ctx, tenantID).
		SetResult(&ext).
		Get(fmt.Sprintf("/identity/externalIds/%s/%s", idType, externalID))
	if err != nil {
		return nil, fmt.Errorf("find external id %s/%s: %w", idType, externalID, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.IsError() {
		return nil, fmt.Errorf("find external id %s/%s: status %d", idType, externalID, resp.StatusCode())
	}
	return &ext, nil
}

func (c *HTTPClient) CreateExternalID(ctx context.Context, tenantID string, ext *ExternalID) error {
	defer observe("create_external_id", time.Now())

	resp, err := c.request(ctx, tenantID).
		SetBody(ext).
		Post("/identity/externalIds")
	if err != nil {
		return fmt.Errorf("create external id %s: %w", ext.ID, err)
	}
	if resp.IsError() {
		return fmt.Errorf("create external id %s: status %d", ext.ID, resp.StatusCode())
	}
	return nil
}

func (c *HTTPClient) GetDevice(ctx context.Context, tenantID, deviceID string) (*Device, error) {
	defer observe("get_device", time.Now())

	var device Device
	resp, err := c.request(ctx, tenantID).
		SetResult(&device).
		Get("/inventory/devices/" + deviceID)
	if err != nil {
		return nil, fmt.Errorf("get device %s: %w", deviceID, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.IsError() {
		return nil, fmt.Errorf("get device %s: status %d", deviceID, resp.StatusCode())
	}
	return &device, nil
}

func (c *HTTPClient) CreateDevice(ctx context.Context, tenantID string, device *Device) (*Device, error) {
	defer observe("create_device", time.Now())

	var created Device
	resp, err := c.request(ctx, tenantID).
		SetBody(device).
		SetResult(&created).
		Post("/inventory/devices")
	if err != nil {
		return nil, fmt.Errorf("create device %q: %w", device.Name, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("create device %q: status %d", device.Name, resp.StatusCode())
	}
	return &created, nil
}

func (c *HTTPClient) UpdateDevice(ctx context.Context, tenantID string, device *Device) (*Device, error) {
	defer observe("update_device", time.Now())

	var updated Device
	resp, err := c.request(ctx, tenantID).
		SetBody(device).
		SetResult(&updated).
		Put("/inventory/devices/" + device.ID)
	if err != nil {
		return nil, fmt.Errorf("update device %s: %w", device.ID, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("update device %s: status %d", device.ID, resp.StatusCode())
	}
	return &updated, nil
}

func (c *HTTPClient) ListDevices(ctx context.Context, tenantID string, page int) ([]Device, bool, error) {
	defer observe("list_devices", time.Now())

	var result devicePage
	resp, err := c.request(ctx, tenantID).
		SetQueryParam("page", strconv.Itoa(page)).
		SetQueryParam("pageSize", strconv.Itoa(c.pageSize)).
		SetResult(&result).
		Get("/inventory/devices")
	if err != nil {
		return nil, false, fmt.Errorf("list devices page %d: %w", page, err)
	}
	if resp.IsError() {
		return nil, false, fmt.Errorf("list devices page %d: status %d", page, resp.StatusCode())
	}
	return result.Items, morePages(result.Page, result.PageSize, result.Total), nil
}

func (c *HTTPClient) CreateMeasurement(ctx context.Context, tenantID string, m *Measurement) error {
	defer observe("create_measurement", time.Now())

	resp, err := c.request(ctx, tenantID).
		SetBody(m).
		Post("/measurement/measurements")
	if err != nil {
		return fmt.Errorf("create measurement %s: %w", m.Type, err)
	}
	if resp.IsError() {
		return fmt.Errorf("create measurement %s: status %d", m.Type, resp.StatusCode())
	}
	return nil
}

func (c *HTTPClient) CreateEvent(ctx context.Context, tenantID string, e *Event) error {
	defer observe("create_event", time.Now())

	resp, err := c.request(ctx, tenantID).
		SetBody(e).
		Post("/event/events")
	if err != nil {
		return fmt.Errorf("create event %s: %w", e.Type, err)
	}
	if resp.IsError() {
		return fmt.Errorf("create event %s: status %d", e.Type, resp.StatusCode())
	}
	return nil
}

func (c *HTTPClient) ListEvents(ctx context.Context, tenantID string, filter EventFilter, page int) ([]Event, bool, error) {
	defer observe("list_events", time.Now())

	req := c.request(ctx, tenantID).
		SetQueryParam("page", strconv.Itoa(page)).
		SetQueryParam("pageSize", strconv.Itoa(c.pageSize))
	if filter.DeviceID != "" {
		req.SetQueryParam("deviceId", filter.DeviceID)
	}
	if filter.Type != "" {
		req.SetQueryParam("type", filter.Type)
	}
	if !filter.From.IsZero() {
		req.SetQueryParam("dateFrom", filter.From.Format(time.RFC3339))
	}
	if !filter.To.IsZero() {
		req.SetQueryParam("dateTo", filter.To.Format(time.RFC3339))
	}

	var result eventPage
	resp, err := req.SetResult(&result).Get("/event/events")
	if err != nil {
		return nil, false, fmt.Errorf("list events page %d: %w", page, err)
	}
	if resp.IsError() {
		return nil, false, fmt.Errorf("list events page %d: status %d", page, resp.StatusCode())
	}
	return result.Items, morePages(result.Page, result.PageSize, result.Total), nil
}

func morePages(page, pageSize, total int) bool {
	if page <= 0 || pageSize <= 0 {
		return false
	}
	return page*pageSize < total
}
