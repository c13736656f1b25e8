package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"bubble/internal/address"
	"bubble/internal/geofence"
	"bubble/internal/nearmiss"
	id "bubble/pkg/domain"
)

type fakeProducer struct {
	records []*kgo.Record
	err     error
}

func (p *fakeProducer) ProduceSync(_ context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	var results kgo.ProduceResults
	for _, r := range rs {
		p.records = append(p.records, r)
		results = append(results, kgo.ProduceResult{Record: r, Err: p.err})
	}
	return results
}

func TestPublishNearMissToKafka(t *testing.T) {
	producer := &fakeProducer{}
	emitter := New(NewKafkaSink(producer))
	ev := nearmiss.Event{
		ID:               id.EventID(uuid.New()),
		RunDate:          "2026-04-10",
		UserA:            id.UserID(uuid.New()),
		UserB:            id.UserID(uuid.New()),
		ApproxTime:       time.Date(2026, 4, 10, 10, 15, 0, 0, time.UTC),
		DistanceMeters:   48,
		TimeDeltaMinutes: 15,
	}

	require.NoError(t, emitter.PublishNearMiss(context.Background(), ev))
	require.Len(t, producer.records, 1)
	rec := producer.records[0]
	assert.Equal(t, ev.ID.String(), string(rec.Key))
	require.Len(t, rec.Headers, 1)
	assert.Equal(t, TypeNearMiss, string(rec.Headers[0].Value))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Value, &body))
	assert.Equal(t, "2026-04-10", body["run_date"])
	assert.EqualValues(t, 48, body["distance_meters"])
	assert.NotContains(t, string(rec.Value), "latitude")
}

func TestKafkaSinkSurfacesProduceErrors(t *testing.T) {
	producer := &fakeProducer{err: errors.New("not leader for partition")}
	sink := NewKafkaSink(producer)

	err := sink.Send(context.Background(), Message{Type: TypeNearMiss, Key: "k"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not leader for partition")
}

func TestNotifyAddressChangedLogsWithoutCoordinates(t *testing.T) {
	var buf bytes.Buffer
	emitter := New(NewLogSink(slog.New(slog.NewJSONHandler(&buf, nil))))
	friend := id.UserID(uuid.New())

	err := emitter.NotifyAddressChanged(context.Background(), address.AddressChange{
		AddressID: id.NewAddressID(),
		OwnerID:   id.UserID(uuid.New()),
		Kind:      geofence.KindHome,
		Friends:   []id.UserID{friend},
		ChangedAt: time.Date(2026, 4, 12, 9, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), TypeAddressChanged)
	assert.Contains(t, buf.String(), friend.String())
	assert.NotContains(t, buf.String(), "latitude")
}
