package bb84

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"

	"github.com/alan-christopher/qkdsim/bb84/bitmap"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Traffic counts one party's use of the public channel.
type Traffic struct {
	MessagesSent     int `json:"messages_sent"`
	MessagesReceived int `json:"messages_received"`
	BytesSent        int `json:"bytes_sent"`
	BytesRead        int `json:"bytes_read"`
}

// A protoFramer reads and writes framed protocol buffers to the wire.
// The structure of the frame is trivial:  proto-length | proto
//
// Frames carry no MAC. The public channel is assumed authentic.
type protoFramer struct {
	rw io.ReadWriter
	t  *Traffic
}

func (p *protoFramer) Write(m proto.Message) error {
	marshalled, err := proto.Marshal(m)
	if err != nil {
		return err
	}
	if err := binary.Write(p.rw, binary.LittleEndian, int32(len(marshalled))); err != nil {
		return err
	}
	if _, err := p.rw.Write(marshalled); err != nil {
		return err
	}
	p.t.MessagesSent++
	p.t.BytesSent += 4 + len(marshalled)
	return nil
}

func (p *protoFramer) Read(m proto.Message) error {
	var mLen int32
	if err := binary.Read(p.rw, binary.LittleEndian, &mLen); err != nil {
		return err
	}
	if mLen < 0 {
		return fmt.Errorf("negative frame length %d", mLen)
	}
	marshalled := make([]byte, mLen)
	if _, err := io.ReadFull(p.rw, marshalled); err != nil {
		return err
	}
	p.t.MessagesReceived++
	p.t.BytesRead += 4 + len(marshalled)
	return proto.Unmarshal(marshalled, m)
}

// A duplex is one end of an in-memory, buffered, two-way connection.
type duplex struct {
	in  *bytes.Buffer
	out *bytes.Buffer
}

func (d duplex) Read(p []byte) (int, error)  { return d.in.Read(p) }
func (d duplex) Write(p []byte) (int, error) { return d.out.Write(p) }

// publicChannel returns framers for the two ends of a fresh public channel.
// Writes are buffered, so a single goroutine may drive both ends as long as
// every message is written before it is read.
func publicChannel() (a, b *protoFramer) {
	ab, ba := new(bytes.Buffer), new(bytes.Buffer)
	a = &protoFramer{rw: duplex{in: ba, out: ab}, t: new(Traffic)}
	b = &protoFramer{rw: duplex{in: ab, out: ba}, t: new(Traffic)}
	return a, b
}

// Announcement field names.
const (
	fieldBases   = "bases"
	fieldSample  = "sample"
	fieldSeed    = "seed"
	fieldErrors  = "errors"
	fieldChecked = "checked"
)

// bitsValue encodes d as {"data": base64, "len": n}. structpb renders []byte
// as standard base64.
func bitsValue(d bitmap.Dense) map[string]any {
	return map[string]any{"data": d.Data(), "len": d.Size()}
}

func denseField(s *structpb.Struct, name string) (bitmap.Dense, error) {
	v, ok := s.GetFields()[name]
	if !ok || v.GetStructValue() == nil {
		return bitmap.Empty(), fmt.Errorf("announcement missing bitmap %q", name)
	}
	inner := v.GetStructValue()
	n, err := intField(inner, "len")
	if err != nil {
		return bitmap.Empty(), fmt.Errorf("bitmap %q: %w", name, err)
	}
	data, err := base64.StdEncoding.DecodeString(inner.GetFields()["data"].GetStringValue())
	if err != nil {
		return bitmap.Empty(), fmt.Errorf("bitmap %q: %w", name, err)
	}
	if bitmap.BytesFor(n) != len(data) {
		return bitmap.Empty(), fmt.Errorf("bitmap %q: %d bytes cannot hold %d bits", name, len(data), n)
	}
	return bitmap.NewDense(data, n), nil
}

func intField(s *structpb.Struct, name string) (int, error) {
	v, ok := s.GetFields()[name]
	if !ok {
		return 0, fmt.Errorf("announcement missing %q", name)
	}
	if _, isNum := v.GetKind().(*structpb.Value_NumberValue); !isNum {
		return 0, fmt.Errorf("announcement field %q is not a number", name)
	}
	n := v.GetNumberValue()
	if n < 0 || n != float64(int(n)) {
		return 0, fmt.Errorf("announcement field %q is not a count: %v", name, n)
	}
	return int(n), nil
}

// Seeds are full 63-bit values, which a float64 cannot hold exactly, so they
// travel as decimal strings.
func seedValue(seed int64) string {
	return strconv.FormatInt(seed, 10)
}

func seedField(s *structpb.Struct) (int64, error) {
	v, ok := s.GetFields()[fieldSeed]
	if !ok {
		return 0, fmt.Errorf("announcement missing %q", fieldSeed)
	}
	return strconv.ParseInt(v.GetStringValue(), 10, 64)
}
