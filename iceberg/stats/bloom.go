package stats

import (
	"encoding/binary"
	"io"
	"math"
	"math/bits"

	"github.com/cespare/xxhash/v2"

	pkgerrors "github.com/dot-do/iceberg-sub003/pkg/errors"
)

const (
	wordsPerBlock = 8
	bitsPerWord   = 32
	bitsPerBlock  = wordsPerBlock * bitsPerWord // 256

	bloomMagic   = "BLOOM"
	bloomVersion = byte(1)
)

var codeBloomIO = pkgerrors.MustNewCode("stats.bloom_io")

// saltConstants are the eight odd 32-bit constants used to derive a bit
// position within each word of a block from the hash's high 32 bits; they
// are the salt constants of the Parquet split-block bloom filter. Block
// selection and the serialized framing here differ from Parquet's.
var saltConstants = [wordsPerBlock]uint32{
	0x47b6137b, 0x44974d91, 0x8824ad5b, 0xa2b7289d,
	0x705495c7, 0x2df1424b, 0x9efc4947, 0x5c6bfb31,
}

// block is 256 bits laid out as 8 little-endian 32-bit words.
type block [wordsPerBlock]uint32

func blockWithBit(word [wordsPerBlock]uint32, hashHi uint32) block {
	for i := 0; i < wordsPerBlock; i++ {
		bit := (saltConstants[i] * hashHi) >> (bitsPerWord - 5)
		word[i] |= 1 << bit
	}
	return block(word)
}

// Filter is a split-block bloom filter: 256-bit blocks selected by the low
// 32 bits of an XXH64 hash, eight set bits per inserted value (one per
// word), per §4.3.
type Filter struct {
	Blocks    []block
	ItemCount uint32
	TargetFPR float64
}

// NewFilter sizes a filter for expectedItems at targetFPR, rounding the bit
// count up to a power-of-two block count and clamping to maxBytes.
func NewFilter(expectedItems int, targetFPR float64, maxBytes int) *Filter {
	if expectedItems < 1 {
		expectedItems = 1
	}
	bitsNeeded := -float64(expectedItems) * math.Log(targetFPR) / (math.Ln2 * math.Ln2)
	blocksNeeded := uint64(math.Ceil(bitsNeeded / bitsPerBlock))
	if blocksNeeded < 1 {
		blocksNeeded = 1
	}
	numBlocks := nextPowerOfTwo(blocksNeeded)

	if maxBytes > 0 {
		maxBlocks := uint64(maxBytes) / (bitsPerBlock / 8)
		if maxBlocks < 1 {
			maxBlocks = 1
		}
		if numBlocks > maxBlocks {
			numBlocks = prevPowerOfTwo(maxBlocks)
			if numBlocks < 1 {
				numBlocks = 1
			}
		}
	}

	return &Filter{Blocks: make([]block, numBlocks), TargetFPR: targetFPR}
}

func nextPowerOfTwo(n uint64) uint64 {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len64(n-1)
}

func prevPowerOfTwo(n uint64) uint64 {
	if n <= 1 {
		return 1
	}
	return 1 << (bits.Len64(n) - 1)
}

func hashOf(b []byte) uint64 { return xxhash.Sum64(b) }

func blockIndex(hash uint64, numBlocks uint64) uint64 {
	lo := hash & 0xFFFFFFFF
	return (lo * numBlocks) >> 32
}

// Add inserts the hash of a value (see HashString/HashInt64/HashBytes) into
// the filter, setting one bit per word of the selected block.
func (f *Filter) Add(hash uint64) {
	if len(f.Blocks) == 0 {
		return
	}
	idx := blockIndex(hash, uint64(len(f.Blocks)))
	hi := uint32(hash >> 32)
	f.Blocks[idx] = blockWithBit(f.Blocks[idx], hi)
	f.ItemCount++
}

// MightContain reports whether hash may have been added; false means
// definitely not present (no false negatives).
func (f *Filter) MightContain(hash uint64) bool {
	if len(f.Blocks) == 0 {
		return false
	}
	idx := blockIndex(hash, uint64(len(f.Blocks)))
	hi := uint32(hash >> 32)
	word := f.Blocks[idx]
	for i := 0; i < wordsPerBlock; i++ {
		bit := (saltConstants[i] * hi) >> (bitsPerWord - 5)
		if word[i]&(1<<bit) == 0 {
			return false
		}
	}
	return true
}

// HashString hashes a UTF-8 string value.
func HashString(s string) uint64 { return hashOf([]byte(s)) }

// HashBytes hashes a raw binary/fixed/uuid value.
func HashBytes(b []byte) uint64 { return hashOf(b) }

// HashInt64 hashes a signed integer/long value as its 8-byte little-endian
// representation.
func HashInt64(v int64) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(v))
	return hashOf(buf[:])
}

// Merge ORs other into f in place; both filters must have equal block
// count.
func (f *Filter) Merge(other *Filter) bool {
	if len(f.Blocks) != len(other.Blocks) {
		return false
	}
	for i := range f.Blocks {
		for w := 0; w < wordsPerBlock; w++ {
			f.Blocks[i][w] |= other.Blocks[i][w]
		}
	}
	if other.ItemCount > f.ItemCount {
		f.ItemCount = other.ItemCount
	}
	return true
}

// Serialize writes the single-filter wire format: "BLOOM" magic, version,
// u32 num_blocks, u32 item_count, f64 target FPR, then raw block bytes.
func (f *Filter) Serialize(w io.Writer) error {
	if _, err := w.Write([]byte(bloomMagic)); err != nil {
		return pkgerrors.Wrap(codeBloomIO, pkgerrors.KindInternal, "write magic", err)
	}
	if _, err := w.Write([]byte{bloomVersion}); err != nil {
		return pkgerrors.Wrap(codeBloomIO, pkgerrors.KindInternal, "write version", err)
	}
	var hdr [16]byte
	binary.LittleEndian.PutUint32(hdr[0:4], uint32(len(f.Blocks)))
	binary.LittleEndian.PutUint32(hdr[4:8], f.ItemCount)
	binary.LittleEndian.PutUint64(hdr[8:16], math.Float64bits(f.TargetFPR))
	if _, err := w.Write(hdr[:]); err != nil {
		return pkgerrors.Wrap(codeBloomIO, pkgerrors.KindInternal, "write header", err)
	}
	buf := make([]byte, bitsPerBlock/8)
	for _, blk := range f.Blocks {
		for i, word := range blk {
			binary.LittleEndian.PutUint32(buf[i*4:], word)
		}
		if _, err := w.Write(buf); err != nil {
			return pkgerrors.Wrap(codeBloomIO, pkgerrors.KindInternal, "write block", err)
		}
	}
	return nil
}

// DeserializeFilter reads the wire format written by Serialize.
func DeserializeFilter(r io.Reader) (*Filter, error) {
	magic := make([]byte, len(bloomMagic)+1)
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, pkgerrors.Wrap(codeBloomIO, pkgerrors.KindInternal, "read magic", err)
	}
	if string(magic[:len(bloomMagic)]) != bloomMagic {
		return nil, pkgerrors.Newf(codeBloomIO, pkgerrors.KindValidation, "bad bloom filter magic %q", magic[:len(bloomMagic)])
	}
	var hdr [16]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, pkgerrors.Wrap(codeBloomIO, pkgerrors.KindInternal, "read header", err)
	}
	numBlocks := binary.LittleEndian.Uint32(hdr[0:4])
	itemCount := binary.LittleEndian.Uint32(hdr[4:8])
	targetFPR := math.Float64frombits(binary.LittleEndian.Uint64(hdr[8:16]))

	f := &Filter{Blocks: make([]block, numBlocks), ItemCount: itemCount, TargetFPR: targetFPR}
	buf := make([]byte, bitsPerBlock/8)
	for i := range f.Blocks {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, pkgerrors.Wrap(codeBloomIO, pkgerrors.KindInternal, "read block", err)
		}
		for w := 0; w < wordsPerBlock; w++ {
			f.Blocks[i][w] = binary.LittleEndian.Uint32(buf[w*4:])
		}
	}
	return f, nil
}
