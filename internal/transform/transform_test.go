package transform

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_LowercasesHeaders(t *testing.T) {
	frame, err := Parse(strings.NewReader("Person_ID,Birth_Datetime\n1,2000-01-01\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"person_id", "birth_datetime"}, frame.Columns)
	require.Len(t, frame.Rows, 1)
	assert.Equal(t, "1", *frame.Rows[0][0])
	assert.Equal(t, "2000-01-01", *frame.Rows[0][1])
}

func TestParse_TrimsHeaderWhitespace(t *testing.T) {
	frame, err := Parse(strings.NewReader(" Person_ID,Birth_Datetime \n1,2000-01-01\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"person_id", "birth_datetime"}, frame.Columns)
}

func TestParse_NullTokens(t *testing.T) {
	input := "a,b,c,d\n" +
		`1,, ,.` + "\n"
	frame, err := Parse(strings.NewReader(input))
	require.NoError(t, err)

	require.Len(t, frame.Rows, 1)
	row := frame.Rows[0]
	assert.NotNil(t, row[0])
	assert.Nil(t, row[1], "empty string is null")
	assert.Nil(t, row[2], "single space is null")
	assert.Nil(t, row[3], "lone period is null")
}

func TestParse_PreservesNonNullWhitespace(t *testing.T) {
	frame, err := Parse(strings.NewReader("a\n\"  \"\n"))
	require.NoError(t, err)
	require.Len(t, frame.Rows, 1)
	require.NotNil(t, frame.Rows[0][0], "two spaces is not a null token")
	assert.Equal(t, "  ", *frame.Rows[0][0])
}

func TestParse_EmptyFile(t *testing.T) {
	_, err := Parse(strings.NewReader(""))
	assert.Error(t, err)
}

func TestParse_RaggedRowIsError(t *testing.T) {
	_, err := Parse(strings.NewReader("a,b\n1,2,3\n"))
	assert.Error(t, err)
}

func TestReindex(t *testing.T) {
	frame, err := Parse(strings.NewReader("b,a,extra\n2,1,x\n"))
	require.NoError(t, err)

	out := frame.Reindex([]string{"a", "b", "c"})

	assert.Equal(t, []string{"a", "b", "c"}, out.Columns)
	require.Len(t, out.Rows, 1)
	row := out.Rows[0]
	assert.Equal(t, "1", *row[0])
	assert.Equal(t, "2", *row[1])
	assert.Nil(t, row[2], "target column missing from source is null")
}

func TestReindex_AllColumnsMissing(t *testing.T) {
	frame, err := Parse(strings.NewReader("x,y\n1,2\n"))
	require.NoError(t, err)

	out := frame.Reindex([]string{"a", "b"})
	require.Len(t, out.Rows, 1)
	assert.Nil(t, out.Rows[0][0])
	assert.Nil(t, out.Rows[0][1])
}

func TestIsConceptIDColumn(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"condition_concept_id", true},
		{"gender_concept_id", true},
		{"condition_source_concept_id", false},
		{"gender_source_value", false},
		{"person_id", false},
		{"concept_id", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsConceptIDColumn(tt.name), tt.name)
	}
}

func TestCoerceConceptIDs(t *testing.T) {
	input := "condition_concept_id,condition_source_concept_id,stop_reason\n,,\n5,6,done\n"
	frame, err := Parse(strings.NewReader(input))
	require.NoError(t, err)

	frame.CoerceConceptIDs()

	require.Len(t, frame.Rows, 2)
	require.NotNil(t, frame.Rows[0][0])
	assert.Equal(t, "0", *frame.Rows[0][0], "null concept_id becomes 0")
	assert.Nil(t, frame.Rows[0][1], "source_concept_id keeps null")
	assert.Nil(t, frame.Rows[0][2], "non-concept column keeps null")

	assert.Equal(t, "5", *frame.Rows[1][0], "existing values untouched")
	assert.Equal(t, "6", *frame.Rows[1][1])
}

func TestPipeline_EndToEnd(t *testing.T) {
	input := "Person_ID,Gender_Concept_ID,Unknown_Col\n7,,x\n"
	frame, err := Parse(strings.NewReader(input))
	require.NoError(t, err)

	out := frame.Reindex([]string{"person_id", "gender_concept_id", "birth_datetime"}).CoerceConceptIDs()

	assert.Equal(t, []string{"person_id", "gender_concept_id", "birth_datetime"}, out.Columns)
	require.Len(t, out.Rows, 1)
	assert.Equal(t, "7", *out.Rows[0][0])
	assert.Equal(t, "0", *out.Rows[0][1])
	assert.Nil(t, out.Rows[0][2])
}

func TestReadRecords_VariableFieldCounts(t *testing.T) {
	records, err := ReadRecords(strings.NewReader("a,b,c\nx\ny,z\n"))
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Len(t, records[1], 1)
	assert.Len(t, records[2], 2)
}
