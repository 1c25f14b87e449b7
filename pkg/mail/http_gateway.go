package mail

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPGateway implements email sending via a transactional mail HTTP API
type HTTPGateway struct {
	apiURL      string
	apiKey      string
	fromAddress string
	fromName    string
	client      *http.Client
}

// HTTPConfig holds configuration for the HTTP mail gateway
type HTTPConfig struct {
	APIURL      string
	APIKey      string
	FromAddress string
	FromName    string
}

// NewHTTPGateway creates a new HTTP mail gateway client
func NewHTTPGateway(config HTTPConfig) *HTTPGateway {
	return &HTTPGateway{
		apiURL:      config.APIURL,
		apiKey:      config.APIKey,
		fromAddress: config.FromAddress,
		fromName:    config.FromName,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// sendRequest represents the mail sending request structure
type sendRequest struct {
	FromAddress string `json:"from_address"`
	FromName    string `json:"from_name,omitempty"`
	To          string `json:"to"`
	Subject     string `json:"subject"`
	TextBody    string `json:"text_body"`
}

// sendResponse represents the mail sending response structure
type sendResponse struct {
	Status    string `json:"status"`
	Comment   string `json:"comment"`
	MessageID string `json:"message_id"`
	ErrCode   string `json:"errCode"`
}

// Send delivers a single message through the mail API
func (g *HTTPGateway) Send(msg Message) (string, error) {
	mailReq := sendRequest{
		FromAddress: g.fromAddress,
		FromName:    g.fromName,
		To:          msg.To,
		Subject:     msg.Subject,
		TextBody:    msg.Body,
	}

	jsonData, err := json.Marshal(mailReq)
	if err != nil {
		return "", fmt.Errorf("failed to marshal mail request: %w", err)
	}

	url := fmt.Sprintf("%s/messages", g.apiURL)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create mail request: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", g.apiKey))
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send mail request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read mail response: %w", err)
	}

	var mailResp sendResponse
	if err := json.Unmarshal(body, &mailResp); err != nil {
		return "", fmt.Errorf("failed to parse mail response: %w", err)
	}

	if mailResp.Status != "success" {
		return "", fmt.Errorf("mail sending failed: %s (error code: %s)", mailResp.Comment, mailResp.ErrCode)
	}

	return mailResp.MessageID, nil
}

// GetName returns the name of this mail gateway
func (g *HTTPGateway) GetName() string {
	return "HTTP Mail Gateway"
}
