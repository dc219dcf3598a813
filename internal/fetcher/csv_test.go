package fetcher

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCSV(t *testing.T) {
	doc := "District_ID, Travel_Time ,notes\n1,540,fine\n2,,missing\n"
	tbl, err := ParseCSV(strings.NewReader(doc))
	require.NoError(t, err)

	require.Len(t, tbl.Rows, 2)
	assert.True(t, tbl.HasColumn("district_id"))
	assert.True(t, tbl.HasColumn("Travel_Time"))
	assert.False(t, tbl.HasColumn("population"))

	assert.Equal(t, "1", tbl.Field(tbl.Rows[0], "district_id"))
	assert.Equal(t, "540", tbl.Field(tbl.Rows[0], "travel_time"))
	assert.Equal(t, "", tbl.Field(tbl.Rows[1], "travel_time"))
	assert.Equal(t, "", tbl.Field(tbl.Rows[1], "no_such_column"))
}

func TestParseCSVRaggedRows(t *testing.T) {
	doc := "a,b,c\n1,2\n3,4,5,6\n"
	tbl, err := ParseCSV(strings.NewReader(doc))
	require.NoError(t, err)

	require.Len(t, tbl.Rows, 2)
	// Short row: missing trailing fields read as empty.
	assert.Equal(t, "", tbl.Field(tbl.Rows[0], "c"))
	assert.Equal(t, "5", tbl.Field(tbl.Rows[1], "c"))
}

func TestParseCSVEmpty(t *testing.T) {
	_, err := ParseCSV(strings.NewReader(""))
	assert.Error(t, err)
}

func TestRequireColumns(t *testing.T) {
	tbl, err := ParseCSV(strings.NewReader("district_id,population\n"))
	require.NoError(t, err)

	assert.NoError(t, tbl.RequireColumns("district_id", "population"))
	err = tbl.RequireColumns("district_id", "median_income")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "median_income")
}
