package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// UploadService 向 SeaweedFS master 申请文件位，返回客户端可直传的 URL。
// 只是对象存储 HTTP API 的一层薄封装，失败只影响当次请求。
type UploadService struct {
	masterEndpoint string
	publicEndpoint string
	httpClient     *http.Client
}

// NewUploadService 从环境变量读取端点：
//
//	LC_SEAWEED_MASTER 例：http://127.0.0.1:9333
//	LC_SEAWEED_PUBLIC 例：http://127.0.0.1:8333，空则用 assign 返回的卷地址
func NewUploadService() *UploadService {
	master := os.Getenv("LC_SEAWEED_MASTER")
	if master == "" {
		master = "http://127.0.0.1:9333"
	}
	return &UploadService{
		masterEndpoint: strings.TrimSuffix(master, "/"),
		publicEndpoint: strings.TrimSuffix(os.Getenv("LC_SEAWEED_PUBLIC"), "/"),
		httpClient:     &http.Client{Timeout: 3 * time.Second},
	}
}

type assignResult struct {
	Fid       string `json:"fid"`
	URL       string `json:"url"`
	PublicURL string `json:"publicUrl"`
}

// AssignUploadURL 申请一个文件位，返回 fid 与上传 URL。
func (s *UploadService) AssignUploadURL(ctx context.Context) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.masterEndpoint+"/dir/assign", nil)
	if err != nil {
		return "", "", fmt.Errorf("build assign request: %w", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("assign fid: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", "", fmt.Errorf("assign fid: status %d: %s", resp.StatusCode, string(body))
	}

	var result assignResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", "", fmt.Errorf("decode assign response: %w", err)
	}
	if result.Fid == "" {
		return "", "", fmt.Errorf("assign response missing fid")
	}

	host := s.publicEndpoint
	if host == "" {
		host = result.PublicURL
		if host == "" {
			host = result.URL
		}
		if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
			host = "http://" + host
		}
	}
	return result.Fid, host + "/" + result.Fid, nil
}
