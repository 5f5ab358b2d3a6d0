// Package mail: Microsoft Graph (OAuth client-credentials) provider.
//
// First link of the default chain. Auth failures, rate limiting, and 5xx
// responses classify as transient so the chain can fall through to the
// API-key and SMTP providers; a 400 on message content classifies as
// permanent.
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

	"golang.org/x/oauth2/clientcredentials"

	"github.com/fornello/go-quote-backend/internal/config"
	"github.com/fornello/go-quote-backend/internal/domain"
)

// GraphProvider sends mail through the Graph sendMail endpoint using an
// app-only OAuth token.
type GraphProvider struct {
	sendURL string
	tokens  *TokenCache
	client  *http.Client
}

// graph wire types (subset of the sendMail request body).
type graphRecipient struct {
	EmailAddress struct {
		Address string `json:"address"`
		Name    string `json:"name,omitempty"`
	} `json:"emailAddress"`
}

type graphBody struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

type graphAttachment struct {
	ODataType    string `json:"@odata.type"`
	Name         string `json:"name"`
	ContentType  string `json:"contentType"`
	ContentBytes string `json:"contentBytes"`
}

type graphMessage struct {
	Subject      string            `json:"subject"`
	Body         graphBody         `json:"body"`
	ToRecipients []graphRecipient  `json:"toRecipients"`
	Attachments  []graphAttachment `json:"attachments,omitempty"`
}

type graphSendRequest struct {
	Message         graphMessage `json:"message"`
	SaveToSentItems bool         `json:"saveToSentItems"`
}

// NewGraphProvider builds the adapter from config. The token cache is owned
// by this instance; nothing is shared at package level.
func NewGraphProvider(cfg config.GraphConfig, timeout time.Duration) *GraphProvider {
	cc := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		Scopes:       []string{cfg.Scope},
	}
	return &GraphProvider{
		sendURL: cfg.SendURL,
		tokens:  NewTokenCache(cc.Token, DefaultExpiryMargin),
		client:  &http.Client{Timeout: timeout},
	}
}

// Name implements Provider.
func (p *GraphProvider) Name() string { return "graph" }

// Tokens exposes the cache for tests and diagnostics.
func (p *GraphProvider) Tokens() *TokenCache { return p.tokens }

// Send implements Provider.
func (p *GraphProvider) Send(ctx context.Context, msg *Message) error {
	token, err := p.tokens.Token(ctx)
	if err != nil {
		return transient(p.Name(), fmt.Errorf("token: %w", err))
	}

	body, err := json.Marshal(p.payload(msg))
	if err != nil {
		return permanent(p.Name(), fmt.Errorf("encode: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.sendURL, bytes.NewReader(body))
	if err != nil {
		return permanent(p.Name(), err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return transient(p.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusAccepted || resp.StatusCode == http.StatusOK {
		return nil
	}

	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	err = fmt.Errorf("sendMail status %d: %s", resp.StatusCode, detail)
	if kindFromStatus(resp.StatusCode) == domain.ErrorKindPermanent {
		return permanent(p.Name(), err)
	}
	return transient(p.Name(), err)
}

// payload translates the chain message into the Graph wire format.
func (p *GraphProvider) payload(msg *Message) graphSendRequest {
	var to graphRecipient
	to.EmailAddress.Address = msg.To

	gm := graphMessage{
		Subject:      msg.Subject,
		Body:         graphBody{ContentType: "HTML", Content: msg.HTML},
		ToRecipients: []graphRecipient{to},
	}
	for _, a := range msg.Attachments {
		gm.Attachments = append(gm.Attachments, graphAttachment{
			ODataType:    "#microsoft.graph.fileAttachment",
			Name:         a.Filename,
			ContentType:  a.MIMEType,
			ContentBytes: base64.StdEncoding.EncodeToString(a.Bytes),
		})
	}
	return graphSendRequest{Message: gm, SaveToSentItems: true}
}
