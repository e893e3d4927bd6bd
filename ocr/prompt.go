package ocr

import (
	"fmt"
	"strings"
)

// marksheetLabels are the labels the extractor anchors on; the transcription
// prompt asks the model to keep them verbatim.
var marksheetLabels = []string{
	"NAME:", "ROLL NO:", "PROGRAM:", "EXAM:", "Total Marks:", "Obtained Marks:", "Result:",
}

// BuildTranscriptionPrompt creates the instruction sent with a screenshot to
// a vision model.
func BuildTranscriptionPrompt() string {
	return fmt.Sprintf(`You are an OCR engine for university exam result pages. Follow these rules strictly:

1. Transcribe every piece of visible text in the screenshot, top to bottom.
2. Keep these labels exactly as printed, followed by their values on the same line:
   %s
3. Write each subject row of the marks table on its own line as:
   <subject code and title> <full marks> <pass marks> <obtained marks>
   separated by spaces. Leave the obtained marks empty if the cell is blank.
4. Do not add commentary, headings, markdown or code fences.

Transcription:`, strings.Join(marksheetLabels, " "))
}
