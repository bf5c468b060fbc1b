package ringbus

// RawMessagePayloadSize bounds the payload a [RawMessage] can carry.
const RawMessagePayloadSize = 504

// RawMessage is a fixed-layout message type for callers that want to
// publish arbitrary byte payloads without defining their own T. cmd/ringctl
// uses it so its commands can join any topic without a caller-specific
// struct compiled in. Len records how many of Data's bytes are meaningful;
// bytes beyond Len are zero-padding and never interpreted.
type RawMessage struct {
	Len  uint32
	Data [RawMessagePayloadSize]byte
}

// NewRawMessage copies payload into a RawMessage, truncating to
// RawMessagePayloadSize if necessary.
func NewRawMessage(payload []byte) RawMessage {
	var m RawMessage

	n := copy(m.Data[:], payload)
	m.Len = uint32(n)

	return m
}

// Payload returns the meaningful prefix of Data.
func (m RawMessage) Payload() []byte {
	if int(m.Len) > len(m.Data) {
		return m.Data[:]
	}

	return m.Data[:m.Len]
}
