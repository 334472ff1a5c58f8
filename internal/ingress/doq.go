package ingress

import (
	"context"
	"crypto/tls"
	"encoding/binary"
	"io"
	"time"

	"github.com/quic-go/quic-go"
)

const (
	doqALPN        = "doq"
	doqStreamIdle  = 10 * time.Second
	doqMaxIdleConn = 5 * time.Minute
)

// DoQServer accepts QUIC connections and answers one query per stream
//.
type DoQServer struct {
	Handler *Handler
	TLSCert string
	TLSKey  string

	listener *quic.Listener
}

// Run binds addr and serves DoQ until ctx is cancelled.
func (s *DoQServer) Run(ctx context.Context, addr string) error {
	cert, err := tls.LoadX509KeyPair(s.TLSCert, s.TLSKey)
	if err != nil {
		return err
	}
	tlsConfig := &tls.Config{Certificates: []tls.Certificate{cert}, NextProtos: []string{doqALPN}}

	ln, err := quic.ListenAddr(addr, tlsConfig, &quic.Config{MaxIdleTimeout: doqMaxIdleConn})
	if err != nil {
		return err
	}
	s.listener = ln

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		conn, err := ln.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			continue
		}
		go s.handleConnection(ctx, conn)
	}
}

func (s *DoQServer) handleConnection(ctx context.Context, conn *quic.Conn) {
	clientIP := remoteHost(conn.RemoteAddr())
	for {
		stream, err := conn.AcceptStream(ctx)
		if err != nil {
			return
		}
		go s.handleStream(ctx, stream, clientIP)
	}
}

func (s *DoQServer) handleStream(ctx context.Context, stream *quic.Stream, clientIP string) {
	defer stream.Close()

	_ = stream.SetReadDeadline(time.Now().Add(doqStreamIdle))
	var prefix [2]byte
	if _, err := io.ReadFull(stream, prefix[:]); err != nil {
		return
	}
	msgLen := binary.BigEndian.Uint16(prefix[:])
	msg := make([]byte, msgLen)
	if _, err := io.ReadFull(stream, msg); err != nil {
		return
	}

	resp := s.Handler.Handle(ctx, "doq", clientIP, msg)
	if len(resp) == 0 {
		return
	}

	_ = stream.SetWriteDeadline(time.Now().Add(doqStreamIdle))
	var out [2]byte
	binary.BigEndian.PutUint16(out[:], uint16(len(resp)))
	if _, err := stream.Write(out[:]); err != nil {
		return
	}
	_, _ = stream.Write(resp)
}

// Stop closes the listener. timeout is accepted for symmetry with the
// other protocol servers; QUIC connection teardown is immediate once
// the listener is closed.
func (s *DoQServer) Stop(timeout time.Duration) error {
	if s.listener != nil {
		return s.listener.Close()
	}
	return nil
}
