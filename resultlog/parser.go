package resultlog

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/nonsonwune/tu_results/models"
)

// Unknown is stored for text fields a block does not carry.
const Unknown = "Unknown"

// Delimiter variants, tried in order. The second tolerates a missing space
// between "for" and "Symbol".
var delimiters = []*regexp.Regexp{
	regexp.MustCompile(`=+\s*Results for Symbol Number:\s*(\d+)\s*=+`),
	regexp.MustCompile(`=+\s*Results for\s*Symbol Number:\s*(\d+)\s*=+`),
}

var (
	symbolPattern   = regexp.MustCompile(`Symbol Number:\s*(\d+)`)
	namePattern     = regexp.MustCompile(`(?m)NAME:\s*(.+?)\s*$`)
	rollPattern     = regexp.MustCompile(`ROLL NO:\s*(\d+)`)
	subjectPattern  = regexp.MustCompile(`(?m)^([A-Za-z]+\s*\d+:.+?)\s+(\d+)\s+(\d+\.?\d*)\s+(\d*\.?\d*)`)
	totalPattern    = regexp.MustCompile(`Total Marks:\s*(\d+)`)
	obtainedPattern = regexp.MustCompile(`Obtained.*Marks:\s*(\d+)`)
	resultPattern   = regexp.MustCompile(`Result:\s*(\w+)`)
)

// Block is the raw text following one delimiter.
type Block struct {
	Symbol string
	Text   string
}

// Split cuts content into blocks. Text before the first delimiter is
// discarded. The second delimiter variant is only tried when the first finds
// nothing.
func Split(content string) []Block {
	for _, re := range delimiters {
		locs := re.FindAllStringSubmatchIndex(content, -1)
		if len(locs) == 0 {
			continue
		}
		blocks := make([]Block, 0, len(locs))
		for i, loc := range locs {
			end := len(content)
			if i+1 < len(locs) {
				end = locs[i+1][0]
			}
			blocks = append(blocks, Block{
				Symbol: content[loc[2]:loc[3]],
				Text:   content[loc[1]:end],
			})
		}
		return blocks
	}
	return nil
}

// Parse turns log content into records, one per block that yields at least
// one subject row. A block that fails to parse is logged and skipped.
func Parse(content string, log zerolog.Logger) []models.MarksheetRecord {
	var records []models.MarksheetRecord
	for i, block := range Split(content) {
		rec, ok, err := safeParseBlock(block)
		if err != nil {
			log.Error().Err(err).Int("block", i+1).Str("symbol", block.Symbol).
				Msg("error processing record")
			continue
		}
		if !ok {
			log.Debug().Int("block", i+1).Str("symbol", block.Symbol).
				Msg("no subject rows, record dropped")
			continue
		}
		records = append(records, rec)
	}
	return records
}

// ParseFile reads and parses a log file. An unreadable file is logged and
// yields no records.
func ParseFile(path string, log zerolog.Logger) []models.MarksheetRecord {
	content, err := ReadFile(path)
	if err != nil {
		log.Error().Err(err).Str("file", path).Msg("error reading file")
		return nil
	}
	return Parse(content, log)
}

func safeParseBlock(b Block) (rec models.MarksheetRecord, ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic parsing block: %v", r)
		}
	}()
	return ParseBlock(b)
}

// ParseBlock parses a single block. ok is false when the block carries no
// subject rows.
func ParseBlock(b Block) (models.MarksheetRecord, bool, error) {
	rec := models.MarksheetRecord{
		SymbolNumber: firstGroup(symbolPattern, b.Text, b.Symbol),
		Name:         models.String(firstGroup(namePattern, b.Text, Unknown)),
		RollNumber:   models.String(firstGroup(rollPattern, b.Text, Unknown)),
	}
	if rec.SymbolNumber == "" {
		rec.SymbolNumber = Unknown
	}

	subjects, err := parseSubjects(b.Text)
	if err != nil {
		return models.MarksheetRecord{}, false, err
	}
	if len(subjects) == 0 {
		return models.MarksheetRecord{}, false, nil
	}
	rec.Subjects = subjects

	total, err := parseNumber(totalPattern, b.Text)
	if err != nil {
		return models.MarksheetRecord{}, false, fmt.Errorf("total marks: %w", err)
	}
	obtained, err := parseNumber(obtainedPattern, b.Text)
	if err != nil {
		return models.MarksheetRecord{}, false, fmt.Errorf("obtained marks: %w", err)
	}
	rec.TotalMarks = models.Float(total)
	rec.ObtainedMarks = models.Float(obtained)
	rec.Result = models.String(firstGroup(resultPattern, b.Text, Unknown))
	return rec, true, nil
}

// parseSubjects keys rows by subject code: a repeated code overwrites the
// earlier row but keeps its position.
func parseSubjects(text string) ([]models.SubjectMark, error) {
	var subjects []models.SubjectMark
	index := make(map[string]int)
	for _, m := range subjectPattern.FindAllStringSubmatch(text, -1) {
		code := strings.TrimSpace(m[1])
		full, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			return nil, fmt.Errorf("subject %q full marks: %w", code, err)
		}
		pass, err := strconv.ParseFloat(m[3], 64)
		if err != nil {
			return nil, fmt.Errorf("subject %q pass marks: %w", code, err)
		}
		mark := models.SubjectMark{Code: code, FullMarks: full, PassMarks: pass}
		if m[4] != "" {
			obtained, err := strconv.ParseFloat(m[4], 64)
			if err != nil {
				return nil, fmt.Errorf("subject %q obtained marks: %w", code, err)
			}
			mark.ObtainedMarks = models.Float(obtained)
		}

		if i, seen := index[code]; seen {
			subjects[i] = mark
			continue
		}
		index[code] = len(subjects)
		subjects = append(subjects, mark)
	}
	return subjects, nil
}

func firstGroup(re *regexp.Regexp, text, fallback string) string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return fallback
	}
	if v := strings.TrimSpace(m[1]); v != "" {
		return v
	}
	return fallback
}

func parseNumber(re *regexp.Regexp, text string) (float64, error) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return 0, nil
	}
	return strconv.ParseFloat(m[1], 64)
}
