package printer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sbcrumb/bambuddy-sub000/internal/matching"
	"github.com/sbcrumb/bambuddy-sub000/internal/model"
)

// Client 打印机状态接口客户端
// 只消费打印机侧代理暴露的 JSON 快照接口，不涉及固件协议本身
type Client struct {
	httpClient *http.Client
}

// NewClient 创建状态接口客户端
func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// statusReport 打印机侧代理返回的状态报文
type statusReport struct {
	State    string                `json:"state"`
	JobName  string                `json:"jobName"`
	Progress float64               `json:"progress"`
	Trays    []matching.LoadedTray `json:"trays"`
}

// FetchStatus 拉取一台打印机的状态快照
func (c *Client) FetchStatus(ctx context.Context, p *model.Printer) (*model.PrinterStatus, error) {
	url := strings.TrimSuffix(p.Host, "/") + "/status"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build status request: %w", err)
	}
	if p.AccessCode != "" {
		req.Header.Set("Authorization", "Bearer "+p.AccessCode)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request printer status: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("printer status http %d: %s", resp.StatusCode, string(body))
	}

	var report statusReport
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return nil, fmt.Errorf("decode printer status: %w", err)
	}

	return &model.PrinterStatus{
		PrinterID: p.ID,
		State:     report.State,
		JobName:   report.JobName,
		Progress:  report.Progress,
		Trays:     report.Trays,
		UpdatedAt: time.Now(),
	}, nil
}
