package nats_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/bookclub/pkg/adapters/nats"
	"github.com/aretw0/bookclub/pkg/domain"
)

type fakeConn struct {
	subject string
	data    []byte
	err     error
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	f.subject, f.data = subject, data
	return f.err
}

func TestPublisher_Notify(t *testing.T) {
	conn := &fakeConn{}
	p := nats.NewPublisher(conn, "")

	require.NoError(t, p.Notify(context.Background(), domain.AnswerRecord{FullName: "Ana"}))
	assert.Equal(t, nats.DefaultSubject, conn.subject)

	var ev nats.SubmittedEvent
	require.NoError(t, json.Unmarshal(conn.data, &ev))
	assert.Equal(t, "candidate.submitted", ev.Type)
	assert.Equal(t, "Ana", ev.Record.FullName)
	assert.False(t, ev.SubmittedAt.IsZero())
}

func TestPublisher_Errors(t *testing.T) {
	p := nats.NewPublisher(&fakeConn{err: errors.New("nats: connection closed")}, "custom")
	assert.Error(t, p.Notify(context.Background(), domain.AnswerRecord{}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	conn := &fakeConn{}
	assert.ErrorIs(t, nats.NewPublisher(conn, "x").Notify(ctx, domain.AnswerRecord{}), context.Canceled)
	assert.Nil(t, conn.data)
}
