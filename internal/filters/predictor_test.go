package filters

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomBytes(r *rand.Rand, n int) []byte {
	b := make([]byte, n)
	r.Read(b)
	return b
}

func TestEncodeRowInverse(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	predictors := []int{PredictorNone, PredictorTIFF, PredictorPNGNone, PredictorPNGSub, PredictorPNGUp, PredictorPNGAvg, PredictorPNGPaeth}

	for _, predictor := range predictors {
		for _, colors := range []int{1, 3} {
			for _, bpc := range []int{1, 8, 16} {
				for _, columns := range []int{1, 5, 17} {
					name := fmt.Sprintf("p%d/c%d/bpc%d/w%d", predictor, colors, bpc, columns)
					t.Run(name, func(t *testing.T) {
						rowLen := rowLength(colors, bpc, columns)
						prev := randomBytes(r, rowLen)
						raw := randomBytes(r, rowLen)

						row := append([]byte(nil), raw...)
						require.NoError(t, EncodeRow(predictor, colors, bpc, columns, row, prev))
						require.NoError(t, DecodeRow(predictor, colors, bpc, columns, row, prev))
						assert.Equal(t, raw, row)
					})
				}
			}
		}
	}
}

func TestPredictRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(2))

	tests := []PredictorParams{
		{Predictor: PredictorTIFF, Colors: 3, BitsPerComponent: 8, Columns: 10},
		{Predictor: PredictorTIFF, Colors: 1, BitsPerComponent: 1, Columns: 30},
		{Predictor: PredictorTIFF, Colors: 2, BitsPerComponent: 4, Columns: 7},
		{Predictor: PredictorTIFF, Colors: 1, BitsPerComponent: 16, Columns: 9},
		{Predictor: PredictorPNGUp, Colors: 1, BitsPerComponent: 8, Columns: 4},
		{Predictor: PredictorPNGOptimum, Colors: 4, BitsPerComponent: 8, Columns: 16},
		{Predictor: PredictorPNGOptimum, Colors: 1, BitsPerComponent: 2, Columns: 33},
		{Predictor: 20, Colors: 3, BitsPerComponent: 8, Columns: 5},
	}

	for _, pp := range tests {
		t.Run(fmt.Sprintf("%+v", pp), func(t *testing.T) {
			raw := randomBytes(r, rowLength(pp.Colors, pp.BitsPerComponent, pp.Columns)*6)

			predicted, err := Predict(raw, pp)
			require.NoError(t, err)
			if pp.Predictor >= PredictorPNGNone {
				assert.Len(t, predicted, len(raw)+6)
			}

			decoded, err := Unpredict(predicted, pp)
			require.NoError(t, err)
			assert.Equal(t, raw, decoded)
		})
	}
}

func TestPredictOptimumPicksSmallestRow(t *testing.T) {
	// A smooth ramp is cheapest with Sub: every difference is 1.
	raw := make([]byte, 32)
	for i := range raw {
		raw[i] = byte(100 + i)
	}
	pp := PredictorParams{Predictor: PredictorPNGOptimum, Colors: 1, BitsPerComponent: 8, Columns: 32}

	predicted, err := Predict(raw, pp)
	require.NoError(t, err)
	assert.Equal(t, byte(PredictorPNGSub-PredictorPNGNone), predicted[0])
}

func TestUnpredictAnyPNGValue(t *testing.T) {
	// Every value from 10 up means PNG, with the type taken from each row.
	predicted := []byte{2, 1, 2, 3, 2, 1, 1, 1}
	for _, predictor := range []int{10, 12, 15, 20, 99} {
		pp, err := predictorParams(Params{"Predictor": predictor, "Columns": 3})
		require.NoError(t, err)
		decoded, err := Unpredict(predicted, pp)
		require.NoError(t, err)
		assert.Equal(t, []byte{1, 2, 3, 2, 3, 4}, decoded, "predictor %d", predictor)
	}
}

func TestTIFFPredictor16Bit(t *testing.T) {
	// Two 16-bit samples: 0x0100 and a difference of 0x00ff.
	row := []byte{0x01, 0x00, 0x00, 0xff}
	require.NoError(t, DecodeRow(PredictorTIFF, 1, 16, 2, row, make([]byte, 4)))
	assert.Equal(t, []byte{0x01, 0x00, 0x01, 0xff}, row)
}

func TestTIFFPredictor1Bit(t *testing.T) {
	// Differences 1,0,0,0,1,0,0,0 decode to 1,1,1,1,0,0,0,0.
	row := []byte{0x88}
	require.NoError(t, DecodeRow(PredictorTIFF, 1, 1, 8, row, []byte{0}))
	assert.Equal(t, []byte{0xf0}, row)
}

func TestUnpredictInvalidPNGTag(t *testing.T) {
	pp := PredictorParams{Predictor: PredictorPNGNone, Colors: 1, BitsPerComponent: 8, Columns: 2}
	_, err := Unpredict([]byte{0, 1, 2, 7, 3, 4}, pp)
	require.ErrorIs(t, err, ErrUnsupportedPredictor)
	assert.Equal(t, int64(3), ErrorOffset(err))
}

func TestUnpredictNoneIsIdentity(t *testing.T) {
	data := []byte{1, 2, 3}
	out, err := Unpredict(data, PredictorParams{Predictor: PredictorNone, Colors: 1, BitsPerComponent: 8, Columns: 1})
	require.NoError(t, err)
	assert.Equal(t, data, out)
}

func TestDecodeRowUnknownPredictor(t *testing.T) {
	err := DecodeRow(7, 1, 8, 1, []byte{0}, []byte{0})
	assert.ErrorIs(t, err, ErrUnsupportedPredictor)
}

func TestSampleAccessors(t *testing.T) {
	row := make([]byte, 2)
	setSample(row, 0, 4, 0xa)
	setSample(row, 3, 4, 0x5)
	assert.Equal(t, []byte{0xa0, 0x05}, row)
	assert.Equal(t, 0xa, getSample(row, 0, 4))
	assert.Equal(t, 0x5, getSample(row, 3, 4))

	setSample(row, 1, 2, 7) // stored modulo 4
	assert.Equal(t, 3, getSample(row, 1, 2))

	setBit(row, 15, 0)
	assert.Equal(t, byte(0), getBit(row, 15))
	assert.Equal(t, byte(1), getBit(row, 0))
}
