package resultlog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleLog = `preamble that is not a record
========================================
Results for Symbol Number: 7950001
========================================
NAME: RAM THAPA
ROLL NO: 1001
PHY 101: Physics I 100 35 72
CHM 101: Chemistry 100 35 30
Total Marks: 200
Obtained Marks: 102
Result: F

========================================
Results for Symbol Number: 7950002
========================================
NAME: SITA RAI
ROLL NO: 1002
Total Marks: 200
Obtained Marks: 150
Result: P

========================================
Results for Symbol Number: 7950003
========================================
NAME: HARI KC
PHY 101: Physics I 100 35 80
MTH 101: Mathematics 100 35 
Result: P

`

func TestParseSample(t *testing.T) {
	records := Parse(sampleLog, zerolog.Nop())
	require.Len(t, records, 2, "block without subject rows is dropped")

	first := records[0]
	assert.Equal(t, "7950001", first.SymbolNumber)
	assert.Equal(t, "RAM THAPA", *first.Name)
	assert.Equal(t, "1001", *first.RollNumber)
	assert.Equal(t, 200.0, *first.TotalMarks)
	assert.Equal(t, 102.0, *first.ObtainedMarks)
	assert.Equal(t, "F", *first.Result)
	require.Len(t, first.Subjects, 2)
	assert.Equal(t, "PHY 101: Physics I", first.Subjects[0].Code)
	assert.Equal(t, 35.0, first.Subjects[0].PassMarks)
	assert.Equal(t, 72.0, *first.Subjects[0].ObtainedMarks)
	assert.Equal(t, []string{"CHM 101: Chemistry"}, first.FailedSubjects())

	second := records[1]
	assert.Equal(t, "7950003", second.SymbolNumber)
	assert.Equal(t, Unknown, *second.RollNumber)
	assert.Equal(t, 0.0, *second.TotalMarks, "missing totals default to zero")
	assert.Equal(t, 0.0, *second.ObtainedMarks)
	require.Len(t, second.Subjects, 2)
	assert.Nil(t, second.Subjects[1].ObtainedMarks, "blank obtained marks stay absent")
}

func TestParseNoDelimiters(t *testing.T) {
	assert.Empty(t, Parse("NAME: SOMEONE\nPHY 101: Physics 100 35 50\n", zerolog.Nop()))
	assert.Empty(t, Parse("", zerolog.Nop()))
}

func TestParseSecondDelimiterVariant(t *testing.T) {
	content := "====Results forSymbol Number: 42====\nPHY 101: Physics 100 35 50\nResult: P\n"
	records := Parse(content, zerolog.Nop())
	require.Len(t, records, 1)
	assert.Equal(t, "42", records[0].SymbolNumber)
	assert.Equal(t, Unknown, *records[0].Name)
}

func TestParseDuplicateSubjectLastWriteWins(t *testing.T) {
	content := `========================================
Results for Symbol Number: 9
========================================
PHY 101: Physics 100 35 40
CHM 101: Chemistry 100 35 60
PHY 101: Physics 100 35 90
Result: P
`
	records := Parse(content, zerolog.Nop())
	require.Len(t, records, 1)

	subjects := records[0].Subjects
	require.Len(t, subjects, 2)
	assert.Equal(t, "PHY 101: Physics", subjects[0].Code)
	assert.Equal(t, 90.0, *subjects[0].ObtainedMarks)
	assert.Equal(t, "CHM 101: Chemistry", subjects[1].Code)
}

func TestParseSkipsMalformedBlockAndContinues(t *testing.T) {
	content := `==== Results for Symbol Number: 1 ====
PHY 101: Physics 100 35 .
==== Results for Symbol Number: 2 ====
PHY 101: Physics 100 35 61
Result: P
`
	records := Parse(content, zerolog.Nop())
	require.Len(t, records, 1)
	assert.Equal(t, "2", records[0].SymbolNumber)
}

func TestParseIsIdempotent(t *testing.T) {
	first := Parse(sampleLog, zerolog.Nop())
	second := Parse(sampleLog, zerolog.Nop())
	assert.Equal(t, first, second)
}

func TestSplitKeepsSymbolAndDropsPreamble(t *testing.T) {
	blocks := Split(sampleLog)
	require.Len(t, blocks, 3)
	assert.Equal(t, "7950001", blocks[0].Symbol)
	assert.NotContains(t, blocks[0].Text, "preamble")
	assert.Contains(t, blocks[0].Text, "RAM THAPA")
	assert.NotContains(t, blocks[0].Text, "SITA RAI")
}

func TestParseBlockWithoutSubjects(t *testing.T) {
	_, ok, err := ParseBlock(Block{Symbol: "5", Text: "NAME: X\nResult: P\n"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestParseFileMissing(t *testing.T) {
	records := ParseFile(filepath.Join(t.TempDir(), "absent.txt"), zerolog.Nop())
	assert.Empty(t, records)
}

func TestParseFileLatin1Fallback(t *testing.T) {
	path := filepath.Join(t.TempDir(), "latin1.txt")
	content := []byte("==== Results for Symbol Number: 77 ====\nNAME: Jos\xe9 Garc\xeda\nPHY 101: Physics 100 35 50\nResult: P\n")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	records := ParseFile(path, zerolog.Nop())
	require.Len(t, records, 1)
	assert.Equal(t, "José García", *records[0].Name)
}
