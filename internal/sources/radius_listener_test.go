package sources

import (
	"net"
	"testing"
	"time"

	"ocstat/internal/models"
	"ocstat/internal/shared/svcerrors"
	"ocstat/internal/streams"
	"ocstat/internal/streams/mocks"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"layeh.com/radius"
	"layeh.com/radius/rfc2865"
	"layeh.com/radius/rfc2866"
	"layeh.com/radius/rfc2869"
)

type recordingResponseWriter struct {
	response *radius.Packet
}

func (w *recordingResponseWriter) Write(response *radius.Packet) error {
	w.response = response
	return nil
}

func accountingRequest(status rfc2866.AcctStatusType) *radius.Request {
	packet := radius.New(radius.CodeAccountingRequest, []byte("testing123"))
	rfc2865.UserName_SetString(packet, "alice_phone")
	rfc2866.AcctStatusType_Set(packet, status)
	rfc2866.AcctSessionID_SetString(packet, "sess-1")
	rfc2865.CallingStationID_SetString(packet, "203.0.113.7")
	rfc2865.FramedIPAddress_Set(packet, net.IPv4(10, 10, 0, 2))

	if status == rfc2866.AcctStatusType_Value_Stop {
		rfc2866.AcctInputOctets_Set(packet, 1024)
		rfc2866.AcctOutputOctets_Set(packet, 2048)
		rfc2869.AcctOutputGigawords_Set(packet, 1)
		rfc2866.AcctSessionTime_Set(packet, 3600)
		rfc2866.AcctDelayTime_Set(packet, 5)
	}

	addr, _ := net.ResolveUDPAddr("udp", "127.0.0.1:1813")
	return &radius.Request{Packet: packet, RemoteAddr: addr}
}

func newRadiusListener(t *testing.T) (*RadiusListener, *streams.PartitionedQueue[models.SessionRecord], *quartz.Mock) {
	t.Helper()
	clock := quartz.NewMock(t)
	clock.Set(time.Date(2025, 12, 28, 18, 0, 0, 0, time.UTC))
	queue := streams.NewPartitionedQueue[models.SessionRecord]()
	listener := NewRadiusListener(":0", "testing123", streams.NewSessionProducer(queue), clock, zerolog.Nop())
	return listener, queue, clock
}

func TestRadiusListener_Start(t *testing.T) {
	t.Parallel()

	listener, queue, clock := newRadiusListener(t)
	w := &recordingResponseWriter{}

	listener.ServeRADIUS(w, accountingRequest(rfc2866.AcctStatusType_Value_Start))

	require.NotNil(t, w.response)
	assert.Equal(t, radius.CodeAccountingResponse, w.response.Code)
	records := queue.Drain(0)
	require.Len(t, records, 1)
	assert.Equal(t, models.SessionRecord{
		Username:  "alice_phone",
		EventKind: models.EventConnect,
		IPReal:    "203.0.113.7",
		IPRemote:  "10.10.0.2",
		Timestamp: clock.Now(),
		Reason:    "connect",
	}, records[0])
}

func TestRadiusListener_Stop(t *testing.T) {
	t.Parallel()

	listener, queue, clock := newRadiusListener(t)
	w := &recordingResponseWriter{}

	listener.ServeRADIUS(w, accountingRequest(rfc2866.AcctStatusType_Value_Stop))

	require.NotNil(t, w.response)
	records := queue.Drain(0)
	require.Len(t, records, 1)
	rec := records[0]
	assert.Equal(t, models.EventDisconnect, rec.EventKind)
	assert.Equal(t, "1024", rec.BytesIn)
	assert.Equal(t, "4294969344", rec.BytesOut, "gigawords extend the 32-bit counter")
	assert.Equal(t, "3600", rec.DurationSeconds)
	assert.Equal(t, clock.Now().Add(-5*time.Second), rec.Timestamp)
}

func TestRadiusListener_InterimUpdateIsAcknowledgedOnly(t *testing.T) {
	t.Parallel()

	listener, queue, _ := newRadiusListener(t)
	w := &recordingResponseWriter{}

	listener.ServeRADIUS(w, accountingRequest(rfc2866.AcctStatusType_Value_InterimUpdate))

	require.NotNil(t, w.response)
	assert.Empty(t, queue.Drain(0))
}

func TestRadiusListener_QueueFailureWithholdsResponse(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	producer := mocks.NewMockSessionProducer(ctrl)
	producer.EXPECT().Produce(gomock.Any(), gomock.Any()).
		Return(svcerrors.NewUnavailableError("STR_9000", "session queue is full, retry later", nil))

	listener := NewRadiusListener(":0", "testing123", producer, quartz.NewMock(t), zerolog.Nop())
	w := &recordingResponseWriter{}

	listener.ServeRADIUS(w, accountingRequest(rfc2866.AcctStatusType_Value_Stop))
	assert.Nil(t, w.response)
}

func TestOctets(t *testing.T) {
	t.Parallel()

	assert.Equal(t, int64(7), octets(0, 7))
	assert.Equal(t, int64(1<<32+7), octets(1, 7))
}
