// Package apiclient 上游项目管理 REST API 的客户端
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"projecthub/internal/session"
	"projecthub/pkg/circuitbreaker"
	"projecthub/pkg/logger"
	"projecthub/pkg/metrics"
	"projecthub/pkg/otel"
	"projecthub/pkg/trace"
)

// Config 客户端配置
type Config struct {
	BaseURL string
	Timeout time.Duration
	Breaker circuitbreaker.Config
}

// Client 所有调用都需要显式传入会话，客户端本身不保存 token
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	breaker    *circuitbreaker.CircuitBreaker
	logger     *zap.Logger
}

func New(cfg Config, log *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	breakerCfg := cfg.Breaker
	breakerCfg.IsFailure = isBreakerFailure
	breakerCfg.OnStateChange = func(from, to circuitbreaker.State) {
		metrics.SetCircuitBreakerState(int(to))
		log.Warn("Upstream circuit breaker state changed",
			zap.String("from", from.String()),
			zap.String("to", to.String()),
		)
	}

	// 不设 http.Client.Timeout：它也限制读 body，会截断下载流。
	// JSON 调用在 call 里用 context 截止时间，下载只限制等待响应头的时间
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = cfg.Timeout

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		timeout:    cfg.Timeout,
		httpClient: &http.Client{Transport: transport},
		breaker:    circuitbreaker.NewCircuitBreaker(breakerCfg),
		logger:     log,
	}
}

// BreakerState 当前熔断器状态，readiness 使用
func (c *Client) BreakerState() circuitbreaker.State {
	return c.breaker.GetState()
}

// request 一次上游调用
type request struct {
	op          string // 指标与 span 名称，例如 projects.list
	method      string
	path        string
	body        io.Reader
	contentType string
	accept      string
}

func jsonRequest(op, method, path string, payload any) (request, error) {
	req := request{op: op, method: method, path: path}
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return req, fmt.Errorf("failed to encode %s request: %w", op, err)
		}
		req.body = bytes.NewReader(b)
		req.contentType = "application/json"
	}
	return req, nil
}

// send 发送请求；非 2xx 响应读完后转换成 *APIError，调用方负责关闭成功响应的 body
func (c *Client) send(ctx context.Context, sess *session.Session, r request) (*http.Response, error) {
	ctx, span := otel.StartUpstreamSpan(ctx, r.op, r.method, r.path)

	log := logger.WithTrace(ctx, c.logger)
	start := time.Now()
	status := "error"
	var err error
	defer func() { otel.EndUpstreamSpan(span, status, err) }()

	var resp *http.Response
	err = c.breaker.Execute(func() error {
		req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL+r.path, r.body)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if r.accept != "" {
			req.Header.Set("Accept", r.accept)
		}
		if r.contentType != "" {
			req.Header.Set("Content-Type", r.contentType)
		}
		if sess != nil && sess.Token != "" {
			req.Header.Set("Authorization", "Bearer "+sess.Token)
		}
		if traceID := trace.FromContext(ctx); traceID != "" {
			req.Header.Set(trace.HeaderName, traceID)
		}
		otel.InjectHeaders(ctx, req.Header)

		res, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		status = strconv.Itoa(res.StatusCode)

		if res.StatusCode >= 300 {
			defer res.Body.Close()
			body, _ := io.ReadAll(io.LimitReader(res.Body, 64<<10))
			return parseAPIError(res.StatusCode, body)
		}
		resp = res
		return nil
	})

	duration := time.Since(start)
	if errors.Is(err, ErrCircuitOpen) {
		status = "circuit_open"
	}
	metrics.RecordUpstreamRequest(r.method, r.op, status, duration)

	if err != nil {
		log.Warn("Upstream call failed",
			zap.String("op", r.op),
			zap.String("method", r.method),
			zap.String("path", r.path),
			zap.String("status", status),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%s: %w", r.op, err)
	}

	log.Debug("Upstream call succeeded",
		zap.String("op", r.op),
		zap.String("status", status),
		zap.Duration("duration", duration),
	)
	return resp, nil
}

// call 发送请求并读取完整响应体，整个过程受 timeout 限制
func (c *Client) call(ctx context.Context, sess *session.Session, r request) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.send(ctx, sess, r)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read response: %w", r.op, err)
	}
	return body, nil
}

func getList[T any](ctx context.Context, c *Client, sess *session.Session, op, path string) ([]T, error) {
	body, err := c.call(ctx, sess, request{op: op, method: http.MethodGet, path: path})
	if err != nil {
		return nil, err
	}
	items, err := decodeList[T](body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return items, nil
}

func doJSON[T any](ctx context.Context, c *Client, sess *session.Session, op, method, path string, payload any) (T, error) {
	var zero T
	req, err := jsonRequest(op, method, path, payload)
	if err != nil {
		return zero, err
	}
	body, err := c.call(ctx, sess, req)
	if err != nil {
		return zero, err
	}
	out, err := decodeOne[T](body)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

// doNoContent 不关心响应体的调用（删除、标记已读）
func (c *Client) doNoContent(ctx context.Context, sess *session.Session, op, method, path string, payload any) error {
	req, err := jsonRequest(op, method, path, payload)
	if err != nil {
		return err
	}
	_, err = c.call(ctx, sess, req)
	return err
}
