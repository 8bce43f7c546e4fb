// probe.go — однократная проверка доступности сервера.
package store

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

// ProbeTimeout — предельное время health-проверки.
const ProbeTimeout = 2 * time.Second

// HealthInfo — тело ответа GET /api/health.
type HealthInfo struct {
	Status      string   `json:"status"`
	DataDir     string   `json:"dataDir"`
	Collections []string `json:"collections"`
	Version     string   `json:"version"`
	Timestamp   string   `json:"timestamp"`
}

// Availability — результат проверки. Передаётся явно, глобального состояния нет.
type Availability struct {
	Available bool
	BaseURL   string
	// Health заполнен, если сервер доступен и вернул разбираемое тело.
	Health *HealthInfo
}

// Probe выполняет GET {baseURL}/api/health с таймаутом ProbeTimeout.
// Любая ошибка или статус вне 2xx означает «недоступен».
func Probe(ctx context.Context, client *http.Client, baseURL string) Availability {
	baseURL = strings.TrimRight(baseURL, "/")
	result := Availability{BaseURL: baseURL}
	if baseURL == "" {
		return result
	}
	if client == nil {
		client = http.DefaultClient
	}

	ctx, cancel := context.WithTimeout(ctx, ProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/health", nil)
	if err != nil {
		return result
	}
	resp, err := client.Do(req)
	if err != nil {
		return result
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return result
	}

	result.Available = true
	var info HealthInfo
	if json.NewDecoder(resp.Body).Decode(&info) == nil {
		result.Health = &info
	}
	return result
}
