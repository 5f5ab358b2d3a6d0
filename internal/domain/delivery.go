// Package domain defines the persistence models and value types for the
// quote delivery pipeline. This file holds the transient notification and
// delivery-result types produced and consumed within a single send.
package domain

import "time"

// Attachment is a binary file attached to an outbound notification.
type Attachment struct {
	Filename string
	Bytes    []byte
	MIMEType string
}

// RenderedNotification is the fully rendered outbound message handed to the
// transport chain. It is never persisted; it exists only between the render
// step and the dispatch step of one send.
type RenderedNotification struct {
	Subject     string
	HTML        string
	Text        string
	Attachments []Attachment
}

// ErrorKind classifies a provider failure for the chain's advance-or-stop
// decision. Transient failures (network, auth, 5xx, timeout) advance the
// chain to the next provider; a Permanent failure (content rejected) stops
// it immediately, since switching providers cannot fix a malformed message.
type ErrorKind string

const (
	ErrorKindNone      ErrorKind = ""
	ErrorKindTransient ErrorKind = "transient"
	ErrorKindPermanent ErrorKind = "permanent"
)

// DeliveryStatus is the terminal state of a dispatch through the chain.
type DeliveryStatus string

const (
	// StatusDelivered means some provider accepted the message.
	StatusDelivered DeliveryStatus = "delivered"
	// StatusAllProvidersFailed means every provider reported a transient failure.
	StatusAllProvidersFailed DeliveryStatus = "all_providers_failed"
	// StatusRejected means a provider permanently rejected the message content.
	StatusRejected DeliveryStatus = "rejected"
)

// ProviderAttempt records one provider call made by the transport chain,
// in order. Suitable for audit logging.
type ProviderAttempt struct {
	Provider  string    `json:"provider"`
	Succeeded bool      `json:"succeeded"`
	ErrorKind ErrorKind `json:"error_kind,omitempty"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// DeliveryResult is the composite outcome of dispatching one notification
// through the transport chain. It carries enough detail for the admin UI to
// distinguish "sent", "sent degraded", and "failed" without extra lookups.
// This core does not persist it.
type DeliveryResult struct {
	ProviderUsed string            `json:"provider_used,omitempty"`
	Attempts     []ProviderAttempt `json:"attempts"`
	FinalStatus  DeliveryStatus    `json:"final_status"`
}
