// Package mail: API-key HTTP mail provider.
//
// Second link of the default chain: a SendGrid-compatible JSON API
// authenticated with a bearer key.
package mail

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fornello/go-quote-backend/internal/config"
	"github.com/fornello/go-quote-backend/internal/domain"
)

// APIKeyProvider sends mail through a bearer-key JSON endpoint.
type APIKeyProvider struct {
	sendURL string
	apiKey  string
	client  *http.Client
}

// apiMail wire types (SendGrid v3 shape).
type apiAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type apiPersonalization struct {
	To []apiAddress `json:"to"`
}

type apiContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type apiAttachment struct {
	Content  string `json:"content"`
	Type     string `json:"type"`
	Filename string `json:"filename"`
}

type apiSendRequest struct {
	Personalizations []apiPersonalization `json:"personalizations"`
	From             apiAddress           `json:"from"`
	Subject          string               `json:"subject"`
	Content          []apiContent         `json:"content"`
	Attachments      []apiAttachment      `json:"attachments,omitempty"`
}

// NewAPIKeyProvider builds the adapter from config.
func NewAPIKeyProvider(cfg config.APIKeyMailConfig, timeout time.Duration) *APIKeyProvider {
	return &APIKeyProvider{
		sendURL: cfg.SendURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
	}
}

// Name implements Provider.
func (p *APIKeyProvider) Name() string { return "apikey" }

// Send implements Provider.
func (p *APIKeyProvider) Send(ctx context.Context, msg *Message) error {
	payload := apiSendRequest{
		Personalizations: []apiPersonalization{{To: []apiAddress{{Email: msg.To}}}},
		From:             apiAddress{Email: msg.FromEmail, Name: msg.FromName},
		Subject:          msg.Subject,
		Content: []apiContent{
			{Type: "text/plain", Value: msg.Text},
			{Type: "text/html", Value: msg.HTML},
		},
	}
	for _, a := range msg.Attachments {
		payload.Attachments = append(payload.Attachments, apiAttachment{
			Content:  base64.StdEncoding.EncodeToString(a.Bytes),
			Type:     a.MIMEType,
			Filename: a.Filename,
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return permanent(p.Name(), fmt.Errorf("encode: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.sendURL, bytes.NewReader(body))
	if err != nil {
		return permanent(p.Name(), err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return transient(p.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	err = fmt.Errorf("send status %d: %s", resp.StatusCode, detail)
	if kindFromStatus(resp.StatusCode) == domain.ErrorKindPermanent {
		return permanent(p.Name(), err)
	}
	return transient(p.Name(), err)
}
