package mock

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Sender отправляет вебхуки в HTTP API агрегатора.
type Sender struct {
	BaseURL string
	Client  *http.Client
}

func NewSender(baseURL string) *Sender {
	return &Sender{BaseURL: baseURL, Client: &http.Client{Timeout: 10 * time.Second}}
}

// Send возвращает код ответа; ответ не 2xx — ошибка с телом ответа.
func (s *Sender) Send(ctx context.Context, wh Webhook) (int, error) {
	url := s.BaseURL + "/webhooks/" + wh.Route
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(wh.Body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if wh.Signature != "" {
		req.Header.Set(wh.Header, wh.Signature)
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode/100 != 2 {
		return resp.StatusCode, fmt.Errorf("%s: %s: %s", url, resp.Status, bytes.TrimSpace(body))
	}
	return resp.StatusCode, nil
}
