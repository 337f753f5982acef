package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/pos-backend/pkg/db/dbtest"
	"github.com/angelmondragon/pos-backend/pkg/db/models"
	"github.com/angelmondragon/pos-backend/pkg/enums"
	"github.com/angelmondragon/pos-backend/pkg/logger"
	"github.com/angelmondragon/pos-backend/pkg/pubsub"
)

type sinkFunc func(context.Context, Entry) error

func (f sinkFunc) Write(ctx context.Context, entry Entry) error { return f(ctx, entry) }

func TestRecorderFansOutAndLogsFailures(t *testing.T) {
	buf := &bytes.Buffer{}
	logg := logger.New(logger.Options{ServiceName: "test", Output: buf})

	var got []Entry
	ok := sinkFunc(func(_ context.Context, e Entry) error {
		got = append(got, e)
		return nil
	})
	failing := sinkFunc(func(context.Context, Entry) error { return errors.New("sink down") })

	rec := NewRecorder(logg, ok, nil, failing)
	rec.Record(context.Background(), Entry{
		Action:       enums.AuditActionStockAdd,
		ResourceType: ResourceStock,
		ResourceID:   "ing-1",
	})

	require.Len(t, got, 1)
	require.False(t, got[0].OccurredAt.IsZero())
	require.Contains(t, buf.String(), "sink down")
	require.Contains(t, buf.String(), `"audit_action":"STOCK_ADD"`)
}

func TestRecorderNilSafe(t *testing.T) {
	var rec *Recorder
	rec.Record(context.Background(), Entry{Action: enums.AuditActionOrderCreated})
	NewRecorder(nil).Record(context.Background(), Entry{Action: enums.AuditActionOrderCreated})
}

func TestDBSinkPersistsEntry(t *testing.T) {
	conn := dbtest.Open(t)
	sink, err := NewDBSink(conn)
	require.NoError(t, err)

	actor := uuid.New()
	err = sink.Write(context.Background(), Entry{
		ActorUserID:  &actor,
		Action:       enums.AuditActionOrderConfirmed,
		ResourceType: ResourceOrder,
		ResourceID:   "order-1",
		Metadata:     map[string]any{"paymentMethod": "card"},
		OccurredAt:   time.Now().UTC(),
	})
	require.NoError(t, err)

	var rows []models.AuditLog
	require.NoError(t, conn.Find(&rows).Error)
	require.Len(t, rows, 1)
	require.Equal(t, enums.AuditActionOrderConfirmed, rows[0].Action)
	require.NotNil(t, rows[0].ResourceID)
	require.Equal(t, "order-1", *rows[0].ResourceID)
	require.NotNil(t, rows[0].ActorUserID)
	require.Equal(t, actor, *rows[0].ActorUserID)

	var meta map[string]any
	require.NoError(t, json.Unmarshal(rows[0].Metadata, &meta))
	require.Equal(t, "card", meta["paymentMethod"])

	_, err = NewDBSink(nil)
	require.Error(t, err)
}

type fakeResult struct {
	err error
}

func (r fakeResult) Get(context.Context) (string, error) { return "msg-1", r.err }

type fakePublisher struct {
	mu       sync.Mutex
	messages []*gcppubsub.Message
	err      error
}

func (p *fakePublisher) Publish(_ context.Context, msg *gcppubsub.Message) pubsub.PublishResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msg)
	return fakeResult{err: p.err}
}

func TestPubSubSinkPublishesEnvelope(t *testing.T) {
	pub := &fakePublisher{}
	sink, err := NewPubSubSink(pub, nil)
	require.NoError(t, err)

	err = sink.Write(context.Background(), Entry{
		Action:       enums.AuditActionStockDeduct,
		ResourceType: ResourceStock,
		ResourceID:   "order-9",
		Metadata:     map[string]any{"lines": 2},
		OccurredAt:   time.Now().UTC(),
	})
	require.NoError(t, err)

	pub.mu.Lock()
	defer pub.mu.Unlock()
	require.Len(t, pub.messages, 1)
	msg := pub.messages[0]
	require.Equal(t, "STOCK_DEDUCT", msg.Attributes["action"])

	var env Envelope
	require.NoError(t, json.Unmarshal(msg.Data, &env))
	require.Equal(t, envelopeVersion, env.Version)
	require.Equal(t, "order-9", env.ResourceID)
	require.Equal(t, msg.Attributes["event_id"], env.EventID)
}

func TestPubSubSinkLogsAsyncFailure(t *testing.T) {
	buf := &syncBuffer{}
	logg := logger.New(logger.Options{ServiceName: "test", Output: buf})
	sink, err := NewPubSubSink(&fakePublisher{err: errors.New("topic gone")}, logg)
	require.NoError(t, err)

	require.NoError(t, sink.Write(context.Background(), Entry{Action: enums.AuditActionOrderCreated, ResourceType: ResourceOrder}))
	require.Eventually(t, func() bool {
		return bytes.Contains(buf.Bytes(), []byte("topic gone"))
	}, time.Second, 10*time.Millisecond)

	_, err = NewPubSubSink(nil, logg)
	require.Error(t, err)
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]byte(nil), b.buf.Bytes()...)
}
