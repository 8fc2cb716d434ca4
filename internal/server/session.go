package server

import (
	"bufio"
	"errors"
	"io"
	"net"
	"sync/atomic"
	"time"

	"github.com/phuslu/log"

	"github.com/huyhandes/pkgindexd/internal/index"
	"github.com/huyhandes/pkgindexd/internal/protocol"
)

// maxLineLen caps a single request line. Large enough for a package name
// plus a few thousand short dependency names; anything longer is drained and
// answered with a single ERROR.
const maxLineLen = 8 * 1024

var errLineTooLong = errors.New("request line exceeds maximum length")

// session is the per-connection handler: it frames lines off the socket,
// runs them through the codec and the store, and writes one response per
// request, in order.
type session struct {
	conn      net.Conn
	reader    *bufio.Reader
	store     *index.Store
	remote    string
	startedAt time.Time

	requests uint64
	draining atomic.Bool
	closed   atomic.Bool
}

func newSession(conn net.Conn, store *index.Store) *session {
	return &session{
		conn:      conn,
		reader:    bufio.NewReaderSize(conn, maxLineLen),
		store:     store,
		remote:    conn.RemoteAddr().String(),
		startedAt: time.Now(),
	}
}

// serve runs the read/dispatch/write loop until the client disconnects, an
// unrecoverable I/O error occurs, or the server drains the session.
func (s *session) serve() {
	defer s.close()

	for {
		line, err := s.readLine()
		switch {
		case err == nil:
		case errors.Is(err, errLineTooLong):
			if werr := s.write(protocol.RespError); werr != nil {
				return
			}
			continue
		default:
			// EOF on a clean disconnect; read deadline when draining;
			// anything else is a broken connection. All of them end the
			// session without affecting other sessions or the store.
			if !errors.Is(err, io.EOF) && !s.draining.Load() {
				log.Debug().Err(err).Str("remote", s.remote).Msg("read failed, closing session")
			}
			return
		}

		s.requests++
		resp := s.dispatch(line)
		if err := s.write(resp); err != nil {
			log.Debug().Err(err).Str("remote", s.remote).Msg("write failed, closing session")
			return
		}

		if s.draining.Load() {
			return
		}
	}
}

// readLine returns the next request line with its terminator stripped. A
// line longer than maxLineLen is consumed up to and including its newline
// and reported as errLineTooLong.
func (s *session) readLine() (string, error) {
	var overlong bool
	for {
		slice, err := s.reader.ReadSlice('\n')
		if err == bufio.ErrBufferFull {
			overlong = true
			continue
		}
		if err != nil {
			return "", err
		}
		if overlong {
			return "", errLineTooLong
		}
		return string(slice[:len(slice)-1]), nil
	}
}

func (s *session) dispatch(line string) protocol.Response {
	req, err := protocol.Parse(line)
	if err != nil {
		log.Debug().Err(err).Str("remote", s.remote).Msg("rejected request")
		return protocol.RespError
	}

	switch req.Command {
	case protocol.CmdIndex:
		return protocol.FromResult(s.store.Index(req.Name, req.Deps))
	case protocol.CmdRemove:
		return protocol.FromResult(s.store.Remove(req.Name))
	default:
		return protocol.FromResult(s.store.Query(req.Name))
	}
}

func (s *session) write(resp protocol.Response) error {
	_, err := s.conn.Write(resp.Line())
	return err
}

// drain tells the session to stop after the request currently in flight. An
// immediate read deadline unblocks a session parked in readLine; a session
// past the read finishes its dispatch and write untouched, then observes the
// draining flag.
func (s *session) drain() {
	s.draining.Store(true)
	s.conn.SetReadDeadline(time.Now())
}

func (s *session) close() {
	if s.closed.CompareAndSwap(false, true) {
		s.conn.Close()
	}
}
