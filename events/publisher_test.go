package events

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/tfkr-ae/deltav/domain"
)

var forcedErr = errors.New("forced error")

type fakeWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func testRefresh() *domain.Refresh {
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &domain.Refresh{
		ID:         uuid.MustParse("01937d13-9632-72aa-83b9-c10ea1abbdd6"),
		StartedAt:  started,
		FinishedAt: started.Add(time.Second),
		Status:     domain.RefreshSuccess,
		Count:      2,
	}
}

func TestPublishRefresh(t *testing.T) {
	t.Run("should write a single keyed message", func(t *testing.T) {
		writer := &fakeWriter{}
		publisher := newPublisher(writer, "deltav.launches", nil)
		refresh := testRefresh()

		launches := []*domain.Launch{{ID: "a"}, {ID: "b"}}
		if err := publisher.PublishRefresh(context.Background(), refresh, launches); err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		if len(writer.messages) != 1 {
			t.Fatalf("\nwanted:\n1\ngot:\n%d", len(writer.messages))
		}
		message := writer.messages[0]
		if string(message.Key) != refresh.ID.String() {
			t.Fatalf("\nwanted:\n%s\ngot:\n%s", refresh.ID, message.Key)
		}

		var event Event
		if err := json.Unmarshal(message.Value, &event); err != nil {
			t.Fatalf("unmarshalling event: %v", err)
		}
		want := Event{
			ID:        refresh.ID.String(),
			Type:      EventLaunchesRefreshed,
			Count:     2,
			LaunchIDs: []string{"a", "b"},
			Timestamp: refresh.FinishedAt,
		}
		if !reflect.DeepEqual(event, want) {
			t.Fatalf("\nwanted:\n%+v\ngot:\n%+v", want, event)
		}

		headers := map[string]string{}
		for _, h := range message.Headers {
			headers[h.Key] = string(h.Value)
		}
		wantHeaders := map[string]string{"event-type": EventLaunchesRefreshed, "source": "deltav"}
		if !reflect.DeepEqual(headers, wantHeaders) {
			t.Fatalf("\nwanted:\n%v\ngot:\n%v", wantHeaders, headers)
		}
	})

	t.Run("should return the writer error", func(t *testing.T) {
		publisher := newPublisher(&fakeWriter{err: forcedErr}, "deltav.launches", nil)
		err := publisher.PublishRefresh(context.Background(), testRefresh(), nil)
		if !errors.Is(err, forcedErr) {
			t.Fatalf("\nwanted:\n%v\ngot:\n%v", forcedErr, err)
		}
	})

	t.Run("should close the writer", func(t *testing.T) {
		writer := &fakeWriter{}
		publisher := newPublisher(writer, "deltav.launches", nil)
		if err := publisher.Close(); err != nil || !writer.closed {
			t.Fatalf("\nwanted:\nclosed writer\ngot:\n%v", err)
		}
	})
}

func TestNewPublisher(t *testing.T) {
	t.Run("should require brokers and a topic", func(t *testing.T) {
		if _, err := NewPublisher(nil, "deltav.launches", nil); err == nil {
			t.Fatalf("\nwanted:\nerror\ngot:\nnil")
		}
		if _, err := NewPublisher([]string{"localhost:9092"}, "", nil); err == nil {
			t.Fatalf("\nwanted:\nerror\ngot:\nnil")
		}
	})
}
