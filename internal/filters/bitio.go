package filters

import (
	"bytes"
	"io"
	"math/bits"
)

// FillOrder is the order in which bits are packed into bytes, with the
// values of the TIFF FillOrder tag.
type FillOrder int

const (
	// MSBFirst packs the first bit into bit 7. This is what PDF uses.
	MSBFirst FillOrder = 1
	// LSBFirst packs the first bit into bit 0.
	LSBFirst FillOrder = 2
)

// BitReader reads a byte stream one bit at a time. It keeps a small
// lookahead buffer so that callers can peek at upcoming bits, but cannot
// seek.
type BitReader struct {
	r     io.ByteReader
	order FillOrder
	acc   uint64 // unread bits, right aligned
	n     uint   // number of unread bits in acc
	off   int64  // bytes taken from r
	err   error  // sticky error from r
}

// NewBitReader returns a BitReader over r using the given fill order.
func NewBitReader(r io.ByteReader, order FillOrder) *BitReader {
	return &BitReader{r: r, order: order}
}

// fill loads whole bytes until at least n bits (n <= 56) are buffered or
// the source is exhausted.
func (b *BitReader) fill(n uint) {
	for b.n < n && b.err == nil {
		c, err := b.r.ReadByte()
		if err != nil {
			b.err = err
			return
		}
		if b.order == LSBFirst {
			c = bits.Reverse8(c)
		}
		b.acc = b.acc<<8 | uint64(c)
		b.n += 8
		b.off++
	}
}

// ReadBit returns the next bit. At the end of the source it returns io.EOF;
// whether that is a clean end or a truncated symbol is for the caller to
// decide.
func (b *BitReader) ReadBit() (bool, error) {
	if b.n == 0 {
		b.fill(1)
		if b.n == 0 {
			return false, b.err
		}
	}
	b.n--
	return b.acc>>b.n&1 == 1, nil
}

// ReadBits reads an n-bit value (n <= 32), first bit most significant.
// It returns io.EOF if the source ends before the first bit and
// ErrUnexpectedEndOfStream if it ends inside the value.
func (b *BitReader) ReadBits(n uint) (uint32, error) {
	b.fill(n)
	if b.n < n {
		if b.n == 0 {
			return 0, b.err
		}
		b.n = 0
		return 0, ErrUnexpectedEndOfStream
	}
	b.n -= n
	return uint32(b.acc>>b.n) & (1<<n - 1), nil
}

// PeekBits returns up to n (<= 32) upcoming bits without consuming them,
// right aligned, and how many bits were available. got is less than n only
// near the end of the source.
func (b *BitReader) PeekBits(n uint) (v uint32, got uint) {
	b.fill(n)
	got = n
	if b.n < n {
		got = b.n
	}
	return uint32(b.acc>>(b.n-got)) & (1<<got - 1), got
}

// Skip discards n bits, at most as many as the last PeekBits reported.
func (b *BitReader) Skip(n uint) {
	if n > b.n {
		n = b.n
	}
	b.n -= n
}

// Align discards the unread bits of the current byte so that the next read
// starts on a byte boundary.
func (b *BitReader) Align() {
	b.n -= b.n % 8
}

// Aligned reports whether the reader is on a byte boundary.
func (b *BitReader) Aligned() bool {
	return b.n%8 == 0
}

// alignedAfter reports whether skipping n buffered bits would leave the
// reader on a byte boundary.
func (b *BitReader) alignedAfter(n uint) bool {
	return n <= b.n && (b.n-n)%8 == 0
}

// Offset returns the number of source bytes consumed so far, counting a
// partially read byte as consumed.
func (b *BitReader) Offset() int64 {
	return b.off - int64(b.n/8)
}

// BitWriter packs bits into an in-memory byte slice.
type BitWriter struct {
	out   bytes.Buffer
	order FillOrder
	cur   byte
	n     uint // bits used in cur
}

// NewBitWriter returns an empty BitWriter using the given fill order.
func NewBitWriter(order FillOrder) *BitWriter {
	return &BitWriter{order: order}
}

// WriteBit appends one bit.
func (w *BitWriter) WriteBit(bit bool) {
	if bit {
		if w.order == LSBFirst {
			w.cur |= 1 << w.n
		} else {
			w.cur |= 0x80 >> w.n
		}
	}
	w.n++
	if w.n == 8 {
		w.out.WriteByte(w.cur)
		w.cur, w.n = 0, 0
	}
}

// WriteBits appends the low n bits of code, most significant first.
func (w *BitWriter) WriteBits(code uint32, n uint) {
	for i := n; i > 0; i-- {
		w.WriteBit(code>>(i-1)&1 == 1)
	}
}

// Flush pads the current byte with zero bits.
func (w *BitWriter) Flush() {
	if w.n > 0 {
		w.out.WriteByte(w.cur)
		w.cur, w.n = 0, 0
	}
}

// Bytes flushes any partial byte and returns the packed output.
func (w *BitWriter) Bytes() []byte {
	w.Flush()
	return w.out.Bytes()
}
