package dataset

import (
	"testing"

	"vizgo/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFrameNormalizesRowWidth(t *testing.T) {
	f, err := NewFrame("cars", []string{"make", "mpg"}, [][]string{{"ford"}, {"bmw", "22", "extra"}})
	require.NoError(t, err)

	assert.Equal(t, 2, f.Len())
	assert.Equal(t, []string{"ford", ""}, f.Rows[0])
	assert.Equal(t, []string{"bmw", "22"}, f.Rows[1])

	mpg, err := f.Column("mpg")
	require.NoError(t, err)
	assert.Equal(t, []string{"", "22"}, mpg)
}

func TestNewFrameRejectsBadHeaders(t *testing.T) {
	_, err := NewFrame("x", nil, nil)
	assert.True(t, core.IsValidationError(err))

	_, err = NewFrame("x", []string{"a", "a"}, nil)
	assert.True(t, core.IsValidationError(err))
}

func TestProfileCloneIsDeep(t *testing.T) {
	p := &Profile{
		Name:       "cars",
		Fields:     []ColumnProfile{{Column: "mpg", Properties: ColumnProperties{DType: DTypeNumber, Samples: []string{"1"}}}},
		FieldNames: []string{"mpg"},
	}
	cp := p.Clone()
	cp.Fields[0].Properties.Description = "miles per gallon"
	cp.Fields[0].Properties.Samples[0] = "2"

	assert.Empty(t, p.Fields[0].Properties.Description)
	assert.Equal(t, "1", p.Fields[0].Properties.Samples[0])
	assert.Equal(t, []string{"mpg"}, p.FieldsOfType(DTypeNumber))
}
