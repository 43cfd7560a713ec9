package stones

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/mamadbah2/stones/internal/config"
	"github.com/mamadbah2/stones/internal/domain/models"
)

const (
	listPath   = "/stones/getAllStones"
	getPath    = "/stones/getStone/{id}"
	addPath    = "/stones/addStone"
	updatePath = "/stones/updateStone/{id}"
	deletePath = "/stones/deleteStone/{id}"
)

// Client exposes the stones backend operations used by the application.
type Client interface {
	ListStones(ctx context.Context) ([]models.Stone, error)
	GetStone(ctx context.Context, id string) (*models.Stone, error)
	AddStone(ctx context.Context, record models.StoneRecord) (*models.Stone, error)
	UpdateStone(ctx context.Context, id string, record models.StoneRecord) (*models.Stone, error)
	DeleteStone(ctx context.Context, id string) (json.RawMessage, error)
}

// APIClient is a resty-backed implementation of Client. It holds no session
// state and is safe for concurrent use.
type APIClient struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewClient builds a stones API client using the provided configuration values.
func NewClient(cfg config.BackendConfig, logger *zap.Logger) *APIClient {
	if logger == nil {
		logger = zap.NewNop()
	}

	restyClient := resty.New()
	restyClient.
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetLogger(logger.Sugar())
	if cfg.Timeout > 0 {
		restyClient.SetTimeout(cfg.Timeout)
	}

	return &APIClient{
		httpClient: restyClient,
		logger:     logger,
	}
}

// ListStones fetches every stone record.
func (c *APIClient) ListStones(ctx context.Context) ([]models.Stone, error) {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		Get(listPath)
	if err != nil {
		return nil, c.transportError(ctx, "list stones", err)
	}

	if !resp.IsSuccess() {
		err := &ServerError{Status: resp.StatusCode(), Body: resp.String()}
		c.logger.Error("error fetching stones", zap.Error(err))
		return nil, err
	}

	if isEmpty(resp.Body()) {
		c.logger.Error("error fetching stones", zap.Error(ErrEmptyResponse))
		return nil, ErrEmptyResponse
	}

	var stones []models.Stone
	if err := json.Unmarshal(resp.Body(), &stones); err != nil {
		c.logger.Error("error decoding stones", zap.Error(err))
		return nil, fmt.Errorf("decode stones: %w", err)
	}

	return stones, nil
}

// GetStone fetches a single stone by id.
func (c *APIClient) GetStone(ctx context.Context, id string) (*models.Stone, error) {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetPathParam("id", id).
		Get(getPath)
	return c.stoneResult(ctx, "get stone", resp, err)
}

// AddStone creates a stone and returns the backend's representation of it.
func (c *APIClient) AddStone(ctx context.Context, record models.StoneRecord) (*models.Stone, error) {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(record).
		Post(addPath)
	return c.stoneResult(ctx, "add stone", resp, err)
}

// UpdateStone replaces the stone identified by id.
func (c *APIClient) UpdateStone(ctx context.Context, id string, record models.StoneRecord) (*models.Stone, error) {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetPathParam("id", id).
		SetBody(record).
		Put(updatePath)
	return c.stoneResult(ctx, "update stone", resp, err)
}

// DeleteStone removes the stone identified by id and returns whatever body the backend sent.
func (c *APIClient) DeleteStone(ctx context.Context, id string) (json.RawMessage, error) {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetPathParam("id", id).
		Delete(deletePath)
	if err != nil {
		return nil, c.transportError(ctx, "delete stone", err)
	}

	if !resp.IsSuccess() {
		err := &HTTPError{Status: resp.StatusCode()}
		c.logger.Error("error deleting stone", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	if isEmpty(resp.Body()) {
		return nil, nil
	}
	return json.RawMessage(resp.Body()), nil
}

func (c *APIClient) stoneResult(ctx context.Context, op string, resp *resty.Response, err error) (*models.Stone, error) {
	if err != nil {
		return nil, c.transportError(ctx, op, err)
	}

	if !resp.IsSuccess() {
		err := &HTTPError{Status: resp.StatusCode()}
		c.logger.Error("backend rejected request", zap.String("op", op), zap.Error(err))
		return nil, err
	}

	if isEmpty(resp.Body()) {
		c.logger.Error("backend returned no body", zap.String("op", op))
		return nil, ErrEmptyResponse
	}

	stone := new(models.Stone)
	if err := json.Unmarshal(resp.Body(), stone); err != nil {
		c.logger.Error("error decoding stone", zap.String("op", op), zap.Error(err))
		return nil, fmt.Errorf("decode %s response: %w", op, err)
	}

	return stone, nil
}

// transportError keeps caller cancellation distinguishable from an unreachable backend.
func (c *APIClient) transportError(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		c.logger.Warn("request abandoned", zap.String("op", op), zap.Error(ctxErr))
		return fmt.Errorf("%s: %w", op, ctxErr)
	}

	c.logger.Error("cannot reach stones backend", zap.String("op", op), zap.Error(err))
	return &ConnectionError{Op: op, Err: err}
}

func isEmpty(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
