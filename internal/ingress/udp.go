package ingress

import (
	"context"
	"net"
	"runtime"
	"sync"
	"time"

	"github.com/fluxdns/fluxdns/internal/dnswire"
	"github.com/fluxdns/fluxdns/internal/pool"
)

// udpWorkersPerCore is the fixed worker-pool size per logical CPU: a
// bounded pool of goroutines reading from one socket, rather than
// spawning a goroutine per packet.
const udpWorkersPerCore = 64

var udpBufferPool = pool.New(func() *[]byte {
	buf := make([]byte, dnswire.MaxIncomingMessageSize)
	return &buf
})

// UDPServer answers DNS queries on a single UDP socket: a single
// socket bound at the configured address, with a recv loop that
// extracts (buf, src) and hands it to a worker.
type UDPServer struct {
	Handler *Handler

	conn *net.UDPConn
	wg   sync.WaitGroup
}

type udpPacket struct {
	bufPtr *[]byte
	n      int
	peer   *net.UDPAddr
}

// Run binds addr and serves until ctx is cancelled.
func (s *UDPServer) Run(ctx context.Context, addr string) error {
	laddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return err
	}
	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return err
	}
	s.conn = conn

	workers := runtime.NumCPU() * udpWorkersPerCore
	packetCh := make(chan udpPacket, workers*2)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.recvLoop(ctx, packetCh)
	}()
	for i := 0; i < workers; i++ {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.workerLoop(ctx, packetCh)
		}()
	}

	<-ctx.Done()
	return s.Stop(5 * time.Second)
}

func (s *UDPServer) recvLoop(ctx context.Context, out chan<- udpPacket) {
	for {
		bufPtr := udpBufferPool.Get()
		n, peer, err := s.conn.ReadFromUDP(*bufPtr)
		if err != nil {
			udpBufferPool.Put(bufPtr)
			return
		}
		select {
		case out <- udpPacket{bufPtr: bufPtr, n: n, peer: peer}:
		default:
			udpBufferPool.Put(bufPtr) // all workers busy; drop to keep recv path fast
		}
		if ctx.Err() != nil {
			return
		}
	}
}

func (s *UDPServer) workerLoop(ctx context.Context, in <-chan udpPacket) {
	for {
		select {
		case <-ctx.Done():
			return
		case pkt, ok := <-in:
			if !ok {
				return
			}
			s.handlePacket(ctx, pkt)
		}
	}
}

func (s *UDPServer) handlePacket(ctx context.Context, pkt udpPacket) {
	defer udpBufferPool.Put(pkt.bufPtr)

	payload := (*pkt.bufPtr)[:pkt.n]
	resp := s.Handler.Handle(ctx, "udp", pkt.peer.IP.String(), payload)
	if len(resp) == 0 {
		return
	}
	_, _ = s.conn.WriteToUDP(resp, pkt.peer)
}

// Stop closes the socket and waits (up to timeout) for in-flight
// workers to drain.
func (s *UDPServer) Stop(timeout time.Duration) error {
	if s.conn != nil {
		_ = s.conn.Close()
	}
	if timeout <= 0 {
		s.wg.Wait()
		return nil
	}
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
	}
	return nil
}
