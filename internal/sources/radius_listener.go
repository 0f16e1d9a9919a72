package sources

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"ocstat/internal/models"
	"ocstat/internal/shared/loggers"
	"ocstat/internal/shared/metrics"
	"ocstat/internal/shared/ulid"
	"ocstat/internal/streams"

	"github.com/coder/quartz"
	"layeh.com/radius"
	"layeh.com/radius/rfc2865"
	"layeh.com/radius/rfc2866"
	"layeh.com/radius/rfc2869"
)

// RadiusListener accepts RADIUS accounting from ocserv and queues each
// Start as a connect and each Stop as a disconnect. Interim updates are
// acknowledged and dropped; only the final Stop carries session totals.
type RadiusListener struct {
	server   *radius.PacketServer
	producer streams.SessionProducer
	clock    quartz.Clock
	logger   loggers.Logger
}

func NewRadiusListener(addr, secret string, producer streams.SessionProducer, clock quartz.Clock, logger loggers.Logger) *RadiusListener {
	l := &RadiusListener{
		producer: producer,
		clock:    clock,
		logger:   logger,
	}
	l.server = &radius.PacketServer{
		Addr:         addr,
		Network:      "udp",
		Handler:      radius.HandlerFunc(l.ServeRADIUS),
		SecretSource: radius.StaticSecretSource([]byte(secret)),
	}
	return l
}

// ListenAndServe blocks until Shutdown.
func (l *RadiusListener) ListenAndServe() error {
	l.logger.Info().Str("addr", l.server.Addr).Msg("radius accounting listener started")
	if err := l.server.ListenAndServe(); err != nil && !errors.Is(err, radius.ErrServerShutdown) {
		return err
	}
	return nil
}

func (l *RadiusListener) Shutdown(ctx context.Context) error {
	return l.server.Shutdown(ctx)
}

func (l *RadiusListener) ServeRADIUS(w radius.ResponseWriter, r *radius.Request) {
	ctx := l.logger.With().Str(loggers.FieldSource, "radius").Logger().WithContext(r.Context())
	logger := loggers.Ctx(ctx)

	if r.Code != radius.CodeAccountingRequest {
		logger.Warn().Str("code", r.Code.String()).Msg("ignoring non accounting packet")
		return
	}

	statusType := rfc2866.AcctStatusType_Get(r.Packet)
	statusLabel := strconv.Itoa(int(statusType))

	record, ok := l.toRecord(r.Packet, statusType)
	if ok {
		batch := &models.SessionBatch{
			BatchID:    ulid.NewULIDAt(record.Timestamp),
			ReceivedAt: l.clock.Now(),
			Records:    []*models.SessionRecord{&record},
		}
		if svcErr := l.producer.Produce(ctx, batch); svcErr != nil {
			// No response: the NAS retransmits the request.
			err := errRadiusPublish(svcErr)
			metricRadiusPacketsTotal.WithLabelValues(statusLabel, err.Code).Inc()
			logger.Error().Err(err).Str(loggers.FieldErrorCode, err.Code).Str(loggers.FieldUsername, record.Username).Msg("failed to queue accounting record")
			return
		}
	}

	metricRadiusPacketsTotal.WithLabelValues(statusLabel, metrics.ValueNoError).Inc()
	if err := w.Write(r.Response(radius.CodeAccountingResponse)); err != nil {
		logger.Warn().Err(err).Msg("failed to write accounting response")
	}
}

func (l *RadiusListener) toRecord(p *radius.Packet, statusType rfc2866.AcctStatusType) (models.SessionRecord, bool) {
	// Acct-Delay-Time says how long the NAS held the packet before sending it.
	at := l.clock.Now().Add(-time.Duration(rfc2866.AcctDelayTime_Get(p)) * time.Second)

	record := models.SessionRecord{
		Username:  rfc2865.UserName_GetString(p),
		IPReal:    rfc2865.CallingStationID_GetString(p),
		Timestamp: at,
	}
	if ip := rfc2865.FramedIPAddress_Get(p); ip != nil {
		record.IPRemote = ip.String()
	}

	switch statusType {
	case rfc2866.AcctStatusType_Value_Start:
		record.EventKind = models.EventConnect
		record.Reason = string(models.EventConnect)
		return record, true
	case rfc2866.AcctStatusType_Value_Stop:
		record.EventKind = models.EventDisconnect
		record.Reason = string(models.EventDisconnect)
		if cause := rfc2866.AcctTerminateCause_Get(p); cause != 0 {
			record.Reason = strings.ToLower(cause.String())
		}
		record.BytesIn = strconv.FormatInt(octets(uint32(rfc2869.AcctInputGigawords_Get(p)), uint32(rfc2866.AcctInputOctets_Get(p))), 10)
		record.BytesOut = strconv.FormatInt(octets(uint32(rfc2869.AcctOutputGigawords_Get(p)), uint32(rfc2866.AcctOutputOctets_Get(p))), 10)
		record.DurationSeconds = strconv.FormatUint(uint64(rfc2866.AcctSessionTime_Get(p)), 10)
		return record, true
	default:
		return models.SessionRecord{}, false
	}
}

// octets joins the 32-bit counter with its gigaword overflow count.
func octets(gigawords, low uint32) int64 {
	return int64(gigawords)<<32 | int64(low)
}
