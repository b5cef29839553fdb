package notify

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitegen/internal/build"
)

type fakeConn struct {
	subject string
	data    []byte
	err     error
}

func (f *fakeConn) Publish(subj string, data []byte) error {
	f.subject = subj
	f.data = data
	return f.err
}

func TestRecordBuild_PublishesEvent(t *testing.T) {
	conn := &fakeConn{}
	n := &NATSNotifier{conn: conn, subject: "sitegen.builds"}

	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	r := &build.Result{
		BuildID: "abc", Site: "example.com", Trigger: build.TriggerChange,
		Start: start, End: start.Add(2 * time.Second),
		Stage: build.StageDone, Outcome: build.OutcomeSuccess, Pages: 5, Published: true,
	}
	require.NoError(t, n.RecordBuild(t.Context(), r))
	assert.Equal(t, "sitegen.builds", conn.subject)

	var ev BuildEvent
	require.NoError(t, json.Unmarshal(conn.data, &ev))
	assert.Equal(t, "abc", ev.BuildID)
	assert.Equal(t, "success", ev.Outcome)
	assert.Equal(t, "change", ev.Trigger)
	assert.Equal(t, int64(2000), ev.DurationMS)
	assert.Empty(t, ev.Error)
}

func TestRecordBuild_FailedBuildCarriesError(t *testing.T) {
	conn := &fakeConn{}
	n := &NATSNotifier{conn: conn, subject: "s"}
	r := &build.Result{Outcome: build.OutcomeFailed, Stage: build.StageComposing, Err: errors.New("boom")}

	require.NoError(t, n.RecordBuild(t.Context(), r))
	var ev BuildEvent
	require.NoError(t, json.Unmarshal(conn.data, &ev))
	assert.Equal(t, "boom", ev.Error)
	assert.Equal(t, "composing", ev.Stage)
}

func TestRecordBuild_PublishError(t *testing.T) {
	n := &NATSNotifier{conn: &fakeConn{err: errors.New("closed")}, subject: "s"}
	require.Error(t, n.RecordBuild(t.Context(), &build.Result{}))
	n.Close()
}

func TestConnect_Unreachable(t *testing.T) {
	_, err := Connect("nats://127.0.0.1:1", "s")
	require.Error(t, err)
}
