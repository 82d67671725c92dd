package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/roadassist/roadassist-backend/internal/pkg/apperror"
)

// Client общается с внешним платёжным шлюзом. Шлюз создаёт заказ на оплату
// и позже присылает подписанное подтверждение; сам Client подписи не
// проверяет, это делает сервис расчётов.
type Client struct {
	baseURL    string
	keyID      string
	httpClient *http.Client
}

// NewClient создаёт клиента шлюза.
func NewClient(baseURL, keyID string) *Client {
	return &Client{
		baseURL: baseURL,
		keyID:   keyID,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Order — заказ на оплату, созданный на стороне шлюза.
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type createOrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

// CreateOrder создаёт заказ на оплату. Сумма передаётся в минорных единицах.
// Недоступность шлюза оборачивается в UPSTREAM_FAILURE: вызывающий может
// повторить с бэкоффом.
func (c *Client) CreateOrder(ctx context.Context, receipt string, amount float64) (*Order, error) {
	payload := createOrderRequest{
		Amount:   int64(amount * 100),
		Currency: "RUB",
		Receipt:  receipt,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("gateway: не удалось сериализовать заказ: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("gateway: не удалось собрать запрос: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.keyID != "" {
		req.Header.Set("Authorization", "Basic "+c.keyID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeUpstream, "платёжный шлюз недоступен")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, apperror.New(apperror.ErrCodeUpstream,
			fmt.Sprintf("платёжный шлюз вернул статус %d", resp.StatusCode))
	}

	var order Order
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeUpstream, "не удалось разобрать ответ шлюза")
	}

	if order.ID == "" {
		return nil, apperror.New(apperror.ErrCodeUpstream, "шлюз вернул заказ без идентификатора")
	}

	return &order, nil
}
