// Package nats publishes submission events to a NATS subject.
package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/aretw0/bookclub/pkg/domain"
)

// DefaultSubject receives one message per accepted submission.
const DefaultSubject = "bookclub.candidates.submitted"

// Conn is satisfied by *nats.Conn.
type Conn interface {
	Publish(subject string, data []byte) error
}

// SubmittedEvent is the message body.
type SubmittedEvent struct {
	Type        string              `json:"type"`
	SubmittedAt time.Time           `json:"submitted_at"`
	Record      domain.AnswerRecord `json:"record"`
}

// Publisher implements ports.Notifier.
type Publisher struct {
	conn    Conn
	subject string
	now     func() time.Time
}

// Connect dials the server and returns a publisher with its connection.
func Connect(url, subject string) (*Publisher, *nats.Conn, error) {
	nc, err := nats.Connect(url, nats.Name("bookclub"))
	if err != nil {
		return nil, nil, fmt.Errorf("connect to nats: %w", err)
	}
	return NewPublisher(nc, subject), nc, nil
}

// NewPublisher publishes on subject. An empty subject uses DefaultSubject.
func NewPublisher(conn Conn, subject string) *Publisher {
	if subject == "" {
		subject = DefaultSubject
	}
	return &Publisher{conn: conn, subject: subject, now: time.Now}
}

// Notify publishes the record. NATS core publish is fire-and-forget, so ctx
// is only checked before sending.
func (p *Publisher) Notify(ctx context.Context, record domain.AnswerRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(SubmittedEvent{
		Type:        "candidate.submitted",
		SubmittedAt: p.now().UTC(),
		Record:      record,
	})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", p.subject, err)
	}
	return nil
}
