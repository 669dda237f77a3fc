package printer

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xelth-com/eckposgo/internal/apperr"
)

func TestShelfLabelsPDF(t *testing.T) {
	labels := make([]ShelfLabel, 30)
	for i := range labels {
		labels[i] = ShelfLabel{SKU: "1234567890" + string(rune('A'+i%26)), Name: "Crème fraîche", Price: 2.49}
	}

	doc, err := ShelfLabelsPDF(labels, DefaultLayout)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(doc, []byte("%PDF-")))
	// 30 labels at 24 per page
	assert.Equal(t, 2, bytes.Count(doc, []byte("/Type /Page\n")))
}

func TestShelfLabelsRejectBadInput(t *testing.T) {
	_, err := ShelfLabelsPDF(nil, DefaultLayout)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	cases := []Layout{
		{Cols: 0, Rows: 1},
		{Cols: 1, Rows: 1, GapX: -1},
		{Cols: 2, Rows: 1, MarginLeft: 100},
	}
	for _, l := range cases {
		_, err := ShelfLabelsPDF([]ShelfLabel{{SKU: "X", Name: "X", Price: 1}}, l)
		assert.ErrorIs(t, err, apperr.ErrValidation, "%+v", l)
	}
}
