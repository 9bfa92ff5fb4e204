package frame

// Ownership tells how a Payload's bytes must be given back.
type Ownership int

const (
	// Borrowed payloads alias a captured frame's buffer and are released
	// through the frame's Source.
	Borrowed Ownership = iota

	// Owned payloads hold a buffer allocated by an encoder and are freed.
	Owned
)

// String returns the ownership name.
func (o Ownership) String() string {
	if o == Owned {
		return "owned"
	}
	return "borrowed"
}

// Buffer is an encoder-allocated byte buffer that must be freed once.
type Buffer interface {
	Bytes() []byte
	Free()
}

// Payload is JPEG data ready for the wire. Exactly one of the two
// ownership modes is active, and Release dispatches on it.
type Payload struct {
	mode Ownership

	src   Source
	frame *Frame

	buf Buffer

	released bool
}

// Borrow wraps a frame that is already JPEG. The payload aliases f.Data.
func Borrow(src Source, f *Frame) *Payload {
	return &Payload{mode: Borrowed, src: src, frame: f}
}

// Own wraps an encoder-allocated buffer.
func Own(buf Buffer) *Payload {
	return &Payload{mode: Owned, buf: buf}
}

// Mode returns the payload's ownership mode.
func (p *Payload) Mode() Ownership {
	return p.mode
}

// Bytes returns the JPEG data. It must not be used after Release.
func (p *Payload) Bytes() []byte {
	if p.released {
		return nil
	}
	if p.mode == Borrowed {
		return p.frame.Data
	}
	return p.buf.Bytes()
}

// Len returns the payload length in bytes.
func (p *Payload) Len() int {
	return len(p.Bytes())
}

// Release returns the frame to its source or frees the owned buffer.
// Only the first call has an effect.
func (p *Payload) Release() {
	if p.released {
		return
	}
	p.released = true

	switch p.mode {
	case Borrowed:
		p.src.Release(p.frame)
		p.frame = nil
	case Owned:
		p.buf.Free()
		p.buf = nil
	}
}
