package reading

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshal(t *testing.T) {
	b, err := json.Marshal(struct {
		A Value `json:"a"`
		B Value `json:"b"`
	}{A: Of(6.5), B: Missing})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":6.5,"b":"-"}`, string(b))
}

func TestUnmarshalAcceptsNumbersAndPlaceholders(t *testing.T) {
	var got struct {
		A Value `json:"a"`
		B Value `json:"b"`
		C Value `json:"c"`
		D Value `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":7.2,"b":"-","c":"1.5","d":null}`), &got))

	v, ok := got.A.Float()
	assert.True(t, ok)
	assert.Equal(t, 7.2, v)
	assert.False(t, got.B.Valid())
	v, ok = got.C.Float()
	assert.True(t, ok)
	assert.Equal(t, 1.5, v)
	assert.False(t, got.D.Valid())
}

func TestUnmarshalRejectsText(t *testing.T) {
	var v Value
	assert.Error(t, json.Unmarshal([]byte(`"acidic"`), &v))
}

func TestRoundHalfUp(t *testing.T) {
	assert.Equal(t, 3.0, Round(2.5, 0))
	assert.Equal(t, -2.0, Round(-2.5, 0))
	assert.Equal(t, 0.13, Round(0.125, 2))
	assert.Equal(t, "6.5", Of(6.54).Round(1).String())
	assert.Equal(t, "-", Missing.Round(1).String())
}

func TestNonZero(t *testing.T) {
	assert.False(t, NonZero(0).Valid())
	assert.True(t, NonZero(0.1).Valid())
}

func TestNonFiniteIsMissing(t *testing.T) {
	for _, v := range []float64{math.Inf(1), math.Inf(-1), math.NaN()} {
		assert.False(t, Of(v).Valid())
		assert.False(t, NonZero(v).Valid())
	}
	b, err := json.Marshal(map[string]Value{"ph": Of(math.Inf(1))})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ph":"-"}`, string(b))
}
