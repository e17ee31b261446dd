package geospatial

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/missing-middle/internal/apperr"
	"github.com/sells-group/missing-middle/internal/dataset"
	"github.com/sells-group/missing-middle/internal/dataset/datasettest"
)

func TestGEOID(t *testing.T) {
	assert.Equal(t, "090035001001", GEOID("9", "3", "500100", "1"))
	assert.Equal(t, "090035001001", GEOID("09", "003", "500100", "1"))
	assert.Equal(t, "360610001002", GEOID("36", "61", "100", "2"))
	assert.Equal(t, "09003", FIPS("9", "3"))
}

func TestBuildGEOID(t *testing.T) {
	ds := datasettest.Build(t,
		datasettest.BlockGroup("9", "3", "500100", "1", "Hartford"),
		datasettest.BlockGroup("09", "013", "000100", "2", "Andover"),
	)

	out, err := BuildGEOID(ds)
	require.NoError(t, err)

	assert.False(t, ds.HasColumn(dataset.GEOIDColumn), "input is not mutated")

	col, err := out.Column(dataset.GEOIDColumn)
	require.NoError(t, err)
	assert.Equal(t, "090035001001", col.Text(0))
	assert.Equal(t, "090130001002", col.Text(1))
}

func TestBuildGEOID_MissingColumn(t *testing.T) {
	ds, err := dataset.New([]string{"TOWN", "STATEA"}, [][]string{{"Hartford", "9"}}, dataset.Options{})
	require.NoError(t, err)

	_, err = BuildGEOID(ds)
	require.Error(t, err)
	assert.True(t, apperr.IsIntegrity(err))
}

func TestCountyFIPS_FirstSeenOrder(t *testing.T) {
	ds := datasettest.Build(t,
		datasettest.BlockGroup("9", "13", "000100", "1", "Andover"),
		datasettest.BlockGroup("9", "3", "500100", "1", "Hartford"),
		datasettest.BlockGroup("09", "013", "000100", "2", "Andover"),
		datasettest.BlockGroup("9", "3", "500100", "2", "Hartford"),
	)

	codes, err := CountyFIPS(ds)
	require.NoError(t, err)
	assert.Equal(t, []string{"09013", "09003"}, codes)
}
