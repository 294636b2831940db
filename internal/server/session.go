package server

import (
	"errors"
	"io"
	"net"
	"time"

	"github.com/XDXX/PNA/core"
	"github.com/XDXX/PNA/internal/protocol"
	log "github.com/sirupsen/logrus"
)

// CodeMalformedFrame is sent to a client whose request could not be decoded,
// right before the connection is closed.
const CodeMalformedFrame = "MALFORMED_FRAME"

// State is the position of a session in its request/response cycle.
type State int

const (
	AwaitingRequest State = iota
	Processing
	SendingResponse
	Closed
)

func (s State) String() string {
	switch s {
	case AwaitingRequest:
		return "awaiting_request"
	case Processing:
		return "processing"
	case SendingResponse:
		return "sending_response"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Session serves one connection. It reads a request, runs it against the
// engine, writes the response and only then reads the next request.
type Session struct {
	id     uint64
	conn   net.Conn
	engine core.Engine
	state  State

	idleTimeout time.Duration
	logger      log.FieldLogger
}

func newSession(id uint64, conn net.Conn, engine core.Engine, idleTimeout time.Duration, logger log.FieldLogger) *Session {
	return &Session{
		id:          id,
		conn:        conn,
		engine:      engine,
		state:       AwaitingRequest,
		idleTimeout: idleTimeout,
		logger: logger.WithFields(log.Fields{
			"session": id,
			"remote":  conn.RemoteAddr().String(),
		}),
	}
}

// NewSession serves conn against engine until the client disconnects.
func NewSession(conn net.Conn, engine core.Engine, logger log.FieldLogger) *Session {
	if logger == nil {
		logger = log.WithField("component", "server")
	}
	return newSession(0, conn, engine, 0, logger)
}

func (ss *Session) State() State {
	return ss.state
}

// Run drives the session until the connection ends. It always leaves the
// session Closed and the connection closed.
func (ss *Session) Run() {
	SessionsActive.Inc()
	SessionsTotal.Inc()
	ss.logger.Debug("session opened")

	defer func() {
		ss.state = Closed
		ss.conn.Close()
		SessionsActive.Dec()
		ss.logger.Debug("session closed")
	}()

	for {
		ss.state = AwaitingRequest

		req, err := ss.readRequest()
		if err != nil {
			ss.handleReadError(err)
			return
		}

		ss.state = Processing
		start := time.Now()
		resp := ss.dispatch(req)
		RequestDurationSeconds.WithLabelValues(req.Op.String()).Observe(time.Since(start).Seconds())

		ss.state = SendingResponse
		if err := ss.writeResponse(resp); err != nil {
			ss.logger.WithError(err).Debug("unable to write response")
			return
		}
	}
}

func (ss *Session) readRequest() (*protocol.Request, error) {
	if ss.idleTimeout > 0 {
		if err := ss.conn.SetReadDeadline(time.Now().Add(ss.idleTimeout)); err != nil {
			return nil, err
		}
	}
	return protocol.DecodeRequest(ss.conn)
}

func (ss *Session) writeResponse(resp *protocol.Response) error {
	encoded, err := protocol.EncodeResponse(resp)
	if err != nil {
		ss.logger.WithError(err).Error("error encoding response")
		encoded, err = protocol.EncodeResponse(protocol.Error(core.CodeIO, err.Error()))
		if err != nil {
			return err
		}
	}

	if ss.idleTimeout > 0 {
		if err := ss.conn.SetWriteDeadline(time.Now().Add(ss.idleTimeout)); err != nil {
			return err
		}
	}

	_, err = ss.conn.Write(encoded)
	return err
}

func (ss *Session) handleReadError(err error) {
	var netErr net.Error

	switch {
	case errors.Is(err, io.EOF):
		ss.logger.Debug("client disconnected")

	case errors.Is(err, protocol.ErrMalformedFrame):
		MalformedFrames.Inc()
		ss.logger.WithError(err).Warn("malformed request, closing connection")

		ss.state = SendingResponse
		if werr := ss.writeResponse(protocol.Error(CodeMalformedFrame, err.Error())); werr != nil {
			ss.logger.WithError(werr).Debug("unable to report malformed request")
		}

	case errors.As(err, &netErr) && netErr.Timeout():
		ss.logger.Debug("idle timeout")

	default:
		ss.logger.WithError(err).Debug("connection error")
	}
}

func (ss *Session) dispatch(req *protocol.Request) *protocol.Response {
	switch req.Op {
	case protocol.OpSet:
		if err := ss.engine.Set(req.Key, req.Value); err != nil {
			return ss.errorResponse(req, err)
		}
		return protocol.OK()

	case protocol.OpGet:
		value, ok, err := ss.engine.Get(req.Key)
		if err != nil {
			return ss.errorResponse(req, err)
		}
		return protocol.Value(value, ok)

	case protocol.OpRemove:
		if err := ss.engine.Remove(req.Key); err != nil {
			return ss.errorResponse(req, err)
		}
		return protocol.OK()

	case protocol.OpScan:
		keys, err := ss.engine.Keys()
		if err != nil {
			return ss.errorResponse(req, err)
		}
		return protocol.KeyList(keys)

	default:
		return protocol.Error(CodeMalformedFrame, "unknown operation "+req.Op.String())
	}
}

func (ss *Session) errorResponse(req *protocol.Request, err error) *protocol.Response {
	code := core.ErrorCode(err)
	RequestErrors.WithLabelValues(req.Op.String(), code).Inc()

	switch code {
	case core.CodeKeyTooLarge, core.CodeValueTooLarge, core.CodeKeyNotFound:
	default:
		ss.logger.WithError(err).WithField("op", req.Op).Error("engine failure")
	}

	return protocol.Error(code, err.Error())
}
