package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/joao-fontenele/orderflow-rest-demo/internal/domain"
)

var (
	// ErrItemNotFound means the inventory service explicitly reported the
	// item as unknown.
	ErrItemNotFound = errors.New("item not found")

	// ErrInventoryUnavailable matches every *RemoteError.
	ErrInventoryUnavailable = errors.New("inventory service unavailable")
)

type RemoteErrorKind string

const (
	KindTimeout           RemoteErrorKind = "timeout"
	KindConnectionRefused RemoteErrorKind = "connection_refused"
	KindTransport         RemoteErrorKind = "transport"
	KindNon2xxStatus      RemoteErrorKind = "non_2xx_status"
	KindMalformedBody     RemoteErrorKind = "malformed_body"
)

// RemoteError describes why a stock check could not be answered.
// StatusCode is set for KindNon2xxStatus only.
type RemoteError struct {
	Kind       RemoteErrorKind
	StatusCode int
	Err        error
}

func (e *RemoteError) Error() string {
	switch {
	case e.Kind == KindNon2xxStatus:
		return fmt.Sprintf("inventory service returned status %d", e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("inventory service %s: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("inventory service %s", e.Kind)
	}
}

func (e *RemoteError) Unwrap() error { return e.Err }

func (e *RemoteError) Is(target error) bool { return target == ErrInventoryUnavailable }

const maxItemBodyBytes = 1 << 20

// InventoryClient performs stock checks against the inventory service's
// GET /items/{id}. Every call is bounded by timeout.
type InventoryClient struct {
	baseURL  string
	client   *http.Client
	timeout  time.Duration
	duration metric.Float64Histogram
}

func NewInventoryClient(baseURL string, client *http.Client, timeout time.Duration) (*InventoryClient, error) {
	duration, err := otel.Meter("orders/inventory-client").Float64Histogram(
		"inventory.stock_check.duration",
		metric.WithDescription("Duration of stock checks against the inventory service"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &InventoryClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   client,
		timeout:  timeout,
		duration: duration,
	}, nil
}

func (c *InventoryClient) GetItem(ctx context.Context, itemID string) (domain.Item, error) {
	start := time.Now()
	item, err := c.getItem(ctx, itemID)

	outcome := "ok"
	var remoteErr *RemoteError
	switch {
	case errors.As(err, &remoteErr):
		outcome = string(remoteErr.Kind)
	case errors.Is(err, ErrItemNotFound):
		outcome = "not_found"
	}
	c.duration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(attribute.String("outcome", outcome)))

	return item, err
}

type itemResponse struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Stock *int    `json:"stock"`
	Price float64 `json:"price"`
	Error string  `json:"error"`
}

func (c *InventoryClient) getItem(ctx context.Context, itemID string) (domain.Item, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/items/"+url.PathEscape(itemID), nil)
	if err != nil {
		return domain.Item{}, &RemoteError{Kind: KindTransport, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return domain.Item{}, classifyTransportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	var body itemResponse
	decodeErr := json.NewDecoder(io.LimitReader(resp.Body, maxItemBodyBytes)).Decode(&body)

	if resp.StatusCode == http.StatusNotFound && decodeErr == nil && body.Error == "Item not found" {
		return domain.Item{}, ErrItemNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return domain.Item{}, &RemoteError{Kind: KindNon2xxStatus, StatusCode: resp.StatusCode}
	}
	if decodeErr != nil {
		if isTimeout(decodeErr) {
			return domain.Item{}, &RemoteError{Kind: KindTimeout, Err: decodeErr}
		}
		return domain.Item{}, &RemoteError{Kind: KindMalformedBody, Err: decodeErr}
	}
	if body.Stock == nil {
		return domain.Item{}, &RemoteError{Kind: KindMalformedBody, Err: errors.New("response has no stock field")}
	}

	return domain.Item{
		ID:    body.ID,
		Name:  body.Name,
		Stock: *body.Stock,
		Price: body.Price,
	}, nil
}

func classifyTransportError(err error) *RemoteError {
	switch {
	case isTimeout(err):
		return &RemoteError{Kind: KindTimeout, Err: err}
	case errors.Is(err, syscall.ECONNREFUSED):
		return &RemoteError{Kind: KindConnectionRefused, Err: err}
	default:
		return &RemoteError{Kind: KindTransport, Err: err}
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
