// Package queue defines message payloads exchanged over the message broker.
package queue

// Email kinds understood by the consumer. Each kind selects a subject and
// body template for the outgoing message.
const (
    EmailVerification  = "verification"
    EmailPasswordReset = "password_reset"
    EmailVerifyCode    = "verify_code"
)

// EmailQueueName is the durable queue carrying outbound email requests.
const EmailQueueName = "email.send"

// EmailRequestedEvent is published whenever a flow needs to notify a user by
// email. Publishing is best-effort from the handlers' point of view: a flow
// never fails because its notification could not be queued. The event holds
// everything the consumer needs to render and send the message without
// querying the primary database.
type EmailRequestedEvent struct {
    To          string `json:"to"`
    Kind        string `json:"kind"`
    Token       string `json:"token,omitempty"` // verification/reset token or numeric code
    Link        string `json:"link,omitempty"`  // pre-built action link for link-based kinds
    RequestedAt string `json:"requested_at"`
}
