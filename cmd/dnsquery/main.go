// Command dnsquery sends a single DNS query over UDP and prints the
// parsed response, for exercising a running fluxdns listener (or any
// other resolver) from the command line.
package main

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/fluxdns/fluxdns/internal/dnswire"
)

func main() {
	var (
		server   = flag.String("server", "127.0.0.1:53", "DNS server HOST:PORT")
		name     = flag.String("name", "example.com", "Query name")
		qtype    = flag.String("type", "A", "Query type (A, AAAA, CNAME, MX, TXT, NS, PTR, SRV)")
		timeout  = flag.Duration("timeout", 2*time.Second, "Timeout")
		recvSize = flag.Int("recv-size", dnswire.MaxIncomingMessageSize, "UDP receive buffer size")
		quiet    = flag.Bool("quiet", false, "Suppress output (exit status indicates success)")
	)
	flag.Parse()

	recordType, ok := dnswire.RecordTypeFromString(strings.ToUpper(*qtype))
	if !ok {
		fmt.Fprintf(os.Stderr, "dnsquery: unknown type %q\n", *qtype)
		os.Exit(2)
	}

	raw, err := queryUDP(*server, *name, recordType, *timeout, *recvSize)
	if err != nil {
		if !*quiet {
			fmt.Fprintf(os.Stderr, "dnsquery: %v\n", err)
		}
		os.Exit(1)
	}
	if *quiet {
		return
	}

	p, err := dnswire.ParsePacket(raw)
	if err != nil {
		fmt.Printf("received %d bytes (unparseable: %v)\n", len(raw), err)
		return
	}

	fmt.Printf("id=%d rcode=%s answers=%d authorities=%d additionals=%d\n",
		p.Header.ID,
		dnswire.RCodeFromFlags(p.Header.Flags),
		len(p.Answers),
		len(p.Authorities),
		len(p.Additionals),
	)

	rows := make([]string, 0, len(p.Answers))
	for _, rr := range p.Answers {
		rows = append(rows, formatRR(rr))
	}
	sort.Strings(rows)
	for _, s := range rows {
		fmt.Println(s)
	}
}

func queryUDP(server, name string, qtype dnswire.RecordType, timeout time.Duration, recvSize int) ([]byte, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("name required")
	}

	addr, err := net.ResolveUDPAddr("udp", server)
	if err != nil {
		return nil, err
	}
	c, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	reqBytes, err := dnswire.EncodeQuery(dnswire.Query{
		ID:               uint16(time.Now().UnixNano()),
		Name:             strings.TrimSuffix(name, "."),
		Type:             qtype,
		RecursionDesired: true,
	})
	if err != nil {
		return nil, err
	}

	_ = c.SetDeadline(time.Now().Add(timeout))
	if _, err := c.Write(reqBytes); err != nil {
		return nil, err
	}
	buf := make([]byte, recvSize)
	n, err := c.Read(buf)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

func formatRR(rr dnswire.Record) string {
	name := rr.Name
	if name == "" {
		name = "."
	}
	t := dnswire.RecordType(rr.Type)

	if ip, ok := rr.IPv4(); ok {
		return fmt.Sprintf("%s %d IN A %s", name, rr.TTL, ip)
	}
	if ip, ok := rr.IPv6(); ok {
		return fmt.Sprintf("%s %d IN AAAA %s", name, rr.TTL, ip)
	}
	switch t {
	case dnswire.TypeCNAME, dnswire.TypeNS, dnswire.TypePTR:
		if s, ok := rr.Data.(string); ok {
			return fmt.Sprintf("%s %d IN %s %s", name, rr.TTL, t, s)
		}
	case dnswire.TypeMX:
		if mx, ok := rr.Data.(dnswire.MXData); ok {
			return fmt.Sprintf("%s %d IN MX %d %s", name, rr.TTL, mx.Preference, mx.Exchange)
		}
	case dnswire.TypeSRV:
		if srv, ok := rr.Data.(dnswire.SRVData); ok {
			return fmt.Sprintf("%s %d IN SRV %d %d %d %s", name, rr.TTL, srv.Priority, srv.Weight, srv.Port, srv.Target)
		}
	}
	return fmt.Sprintf("%s %d IN TYPE%d (unparsed)", name, rr.TTL, rr.Type)
}
