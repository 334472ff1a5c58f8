package dnswire

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Query is FluxDNS's in-memory question model.
// Constructed on server ingress from wire bytes; immutable thereafter.
type Query struct {
	ID               uint16
	Name             string
	Type             RecordType
	RecursionDesired bool
}

// AnswerRecord is the loosely-typed, string-form record FluxDNS carries
// internally for answer/authority/additional entries. Wire records are converted to/from this shape at the
// resolver boundary; protocol clients and the server path work with raw
// wire.Record directly since they forward upstream bytes unmodified.
type AnswerRecord struct {
	Name     string
	Type     RecordType
	Value    string
	TTL      uint32
	Priority uint16 // meaningful for MX and SRV only
}

// Response is FluxDNS's in-memory answer model.
type Response struct {
	ID                 uint16
	ResponseCode       RCode
	Authoritative      bool
	RecursionAvailable bool
	Answers            []Record
	Authority          []Record
	Additional         []Record
}

// ParseError distinguishes a decode failure from an EncodeError, per
// 's "encoding failures are distinct from decoding failures."
type ParseError struct {
	err error
}

func (e *ParseError) Error() string { return e.err.Error() }
func (e *ParseError) Unwrap() error { return e.err }

func parseErr(err error) error {
	if err == nil {
		return nil
	}
	return &ParseError{err: err}
}

// EncodeError wraps an encode-side failure.
type EncodeError struct {
	err error
}

func (e *EncodeError) Error() string { return e.err.Error() }
func (e *EncodeError) Unwrap() error { return e.err }

func encodeErr(err error) error {
	if err == nil {
		return nil
	}
	return &EncodeError{err: err}
}

// DecodeQuery parses a single-question DNS query from wire bytes.
// (id, name lowercased, type) round-trip exactly per the wire round-trip
// invariant; trailing dots on wire names are stripped by
// NormalizeName during question parsing.
func DecodeQuery(msg []byte) (Query, error) {
	p, err := ParsePacket(msg)
	if err != nil {
		return Query{}, parseErr(err)
	}
	if len(p.Questions) != 1 {
		return Query{}, parseErr(fmt.Errorf("%w: expected exactly one question, got %d", ErrWire, len(p.Questions)))
	}
	q := p.Questions[0]
	return Query{
		ID:               p.Header.ID,
		Name:             q.Name,
		Type:             RecordType(q.Type),
		RecursionDesired: p.Header.Flags&RDFlag != 0,
	}, nil
}

// EncodeQuery serializes a Query to wire bytes.
func EncodeQuery(q Query) ([]byte, error) {
	flags := uint16(0)
	if q.RecursionDesired {
		flags |= RDFlag
	}
	p := Packet{
		Header:    Header{ID: q.ID, Flags: flags},
		Questions: []Question{{Name: q.Name, Type: uint16(q.Type), Class: uint16(ClassIN)}},
	}
	b, err := p.Marshal()
	if err != nil {
		return nil, encodeErr(err)
	}
	return b, nil
}

// DecodeResponse parses a DNS response. Records of a type FluxDNS doesn't
// know are dropped silently rather than failing the parse.
func DecodeResponse(msg []byte) (Response, error) {
	p, err := ParsePacket(msg)
	if err != nil {
		return Response{}, parseErr(err)
	}
	flags := p.Header.Flags
	return Response{
		ID:                 p.Header.ID,
		ResponseCode:       RCodeFromFlags(flags),
		Authoritative:      flags&AAFlag != 0,
		RecursionAvailable: flags&RAFlag != 0,
		Answers:            dropUnknown(p.Answers),
		Authority:          dropUnknown(p.Authorities),
		Additional:         dropUnknown(p.Additionals),
	}, nil
}

func dropUnknown(recs []Record) []Record {
	out := make([]Record, 0, len(recs))
	for _, rr := range recs {
		if RecordType(rr.Type).Known() {
			out = append(out, rr)
		}
	}
	return out
}

// EncodeResponse serializes a Response to wire bytes, rewriting the
// message id to the originating query's id — this is the one place id
// substitution happens (DoQ servers MUST send id=0 on the wire, cache
// hits carry whatever id was stored).
func EncodeResponse(resp Response, originatingQuery Query) ([]byte, error) {
	flags := QRFlag
	if resp.Authoritative {
		flags |= AAFlag
	}
	if resp.RecursionAvailable {
		flags |= RAFlag
	}
	if originatingQuery.RecursionDesired {
		flags |= RDFlag
	}
	flags = (flags &^ RCodeMask) | (resp.ResponseCode.Wire() & RCodeMask)

	p := Packet{
		Header: Header{
			ID:    originatingQuery.ID,
			Flags: flags,
		},
		Questions:   []Question{{Name: originatingQuery.Name, Type: uint16(originatingQuery.Type), Class: uint16(ClassIN)}},
		Answers:     resp.Answers,
		Authorities: resp.Authority,
		Additionals: resp.Additional,
	}
	b, err := p.Marshal()
	if err != nil {
		return nil, encodeErr(err)
	}
	return b, nil
}

// BuildErrorResponse constructs a minimal response carrying only rcode,
// for server error paths.
func BuildErrorResponse(id uint16, rcode RCode) Response {
	return Response{ID: id, ResponseCode: rcode}
}

// PatchID overwrites the 16-bit transaction id of an already-encoded wire
// message in place, returning the same slice, without a full
// decode/re-encode round trip. The resolution path does not call it;
// responses get the client's id from EncodeResponse.
func PatchID(msg []byte, id uint16) ([]byte, error) {
	if len(msg) < 2 {
		return nil, errors.New("dnswire: message too short to carry a transaction id")
	}
	binary.BigEndian.PutUint16(msg[0:2], id)
	return msg, nil
}
