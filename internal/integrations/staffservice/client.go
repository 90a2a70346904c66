package staffservice

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// Client клиент для работы со справочником персонала (StaffService)
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        Logger
}

// NewClient создает новый экземпляр клиента StaffService
func NewClient(baseURL string, timeout time.Duration, log Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// ListProfessionals получает специалистов категории.
// Неизвестная категория возвращает пустой список.
func (c *Client) ListProfessionals(ctx context.Context, categoryID int64) ([]domain.Professional, error) {
	var items []Professional
	if err := c.get(ctx, fmt.Sprintf("/internal/categories/%d/professionals", categoryID), &items); err != nil {
		return nil, err
	}

	result := make([]domain.Professional, len(items))
	for i, p := range items {
		result[i] = p.toDomain()
	}
	return result, nil
}

// ListWorkstations получает рабочие места категории.
// Неизвестная категория возвращает пустой список.
func (c *Client) ListWorkstations(ctx context.Context, categoryID int64) ([]domain.Workstation, error) {
	var items []Workstation
	if err := c.get(ctx, fmt.Sprintf("/internal/categories/%d/workstations", categoryID), &items); err != nil {
		return nil, err
	}

	result := make([]domain.Workstation, len(items))
	for i, w := range items {
		result[i] = w.toDomain()
	}
	return result, nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %v", ErrInternal, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error("StaffService request failed: GET %s: %v", path, err)
		return fmt.Errorf("%w: failed to execute request: %v", ErrInternal, err)
	}
	defer resp.Body.Close()

	// Обработка статус-кодов
	switch resp.StatusCode {
	case http.StatusOK:
		// Продолжаем обработку
	case http.StatusNotFound:
		c.log.Warn("StaffService: %s not found, treating as empty roster", path)
		return nil
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: unexpected status code %d: %s", ErrInvalidResponse, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", ErrInvalidResponse, err)
	}
	return nil
}
