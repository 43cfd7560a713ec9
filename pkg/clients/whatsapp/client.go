package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/mamadbah2/stones/internal/config"
)

// Client sends text messages through the WhatsApp Cloud API.
type Client interface {
	SendText(ctx context.Context, to, body string) (string, error)
}

// APIClient is a resty-backed implementation of Client.
type APIClient struct {
	httpClient    *resty.Client
	phoneNumberID string
}

// NewClient builds a WhatsApp API client using the provided configuration values.
func NewClient(cfg config.WhatsAppConfig) *APIClient {
	base := strings.TrimSuffix(cfg.BaseURL, "/")

	restyClient := resty.New()
	restyClient.
		SetBaseURL(fmt.Sprintf("%s/%s", base, cfg.APIVersion)).
		SetAuthToken(cfg.AccessToken).
		SetHeader("Content-Type", "application/json").
		SetTimeout(15 * time.Second)

	return &APIClient{
		httpClient:    restyClient,
		phoneNumberID: cfg.PhoneNumberID,
	}
}

type textMessage struct {
	MessagingProduct string `json:"messaging_product"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Text             struct {
		Body string `json:"body"`
	} `json:"text"`
}

type sendResult struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

// APIError is the error payload returned by the Cloud API.
type APIError struct {
	Status  int    `json:"-"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("whatsapp api error: status=%d code=%d message=%s", e.Status, e.Code, e.Message)
}

// SendText delivers body to one recipient and returns the message id.
func (c *APIClient) SendText(ctx context.Context, to, body string) (string, error) {
	msg := textMessage{MessagingProduct: "whatsapp", To: to, Type: "text"}
	msg.Text.Body = body

	result := new(sendResult)
	var failure struct {
		Error APIError `json:"error"`
	}

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(msg).
		SetResult(result).
		SetError(&failure).
		SetPathParam("phone", c.phoneNumberID).
		Post("/{phone}/messages")
	if err != nil {
		return "", fmt.Errorf("send whatsapp message: %w", err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		apiErr := failure.Error
		apiErr.Status = resp.StatusCode()
		return "", &apiErr
	}

	if len(result.Messages) == 0 {
		return "", nil
	}
	return result.Messages[0].ID, nil
}

// SummaryNotifier fans an inventory summary out to a fixed recipient list.
type SummaryNotifier struct {
	client     Client
	recipients []string
	logger     *zap.Logger
}

// NewSummaryNotifier wires a notifier over client.
func NewSummaryNotifier(client Client, recipients []string, logger *zap.Logger) *SummaryNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SummaryNotifier{client: client, recipients: recipients, logger: logger}
}

// Notify sends text to every recipient. A failed recipient does not stop the others;
// all failures are returned joined.
func (n *SummaryNotifier) Notify(ctx context.Context, text string) error {
	var errs []error
	for _, to := range n.recipients {
		id, err := n.client.SendText(ctx, to, text)
		if err != nil {
			n.logger.Error("failed to send inventory summary", zap.String("to", to), zap.Error(err))
			errs = append(errs, fmt.Errorf("notify %s: %w", to, err))
			continue
		}
		n.logger.Debug("inventory summary sent", zap.String("to", to), zap.String("message_id", id))
	}
	return errors.Join(errs...)
}
