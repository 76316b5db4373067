package service

import (
	"fmt"
	"ssbprep/internal/model"
	"strings"
)

func buildWATPrompt(entry model.WATEntry) string {
	var keys strings.Builder
	for i, trait := range model.WATTraits {
		if i > 0 {
			keys.WriteString(",\n")
		}
		fmt.Fprintf(&keys, "  %q: 0-5", trait)
	}

	return fmt.Sprintf(`You are an SSB psychologist assessing a Word Association Test response.
Return ONLY valid JSON with exactly these keys:
{
%s
}

Score each Officer-Like Quality from 1 (weak) to 5 (strong) as reflected by the sentence.
Use 0 when the quality is not reflected at all or the sentence shows the opposite.
"Negative Indicator" scores how strongly the sentence reads as pessimistic or defeatist.

Word: %s
Candidate's sentence: %s`,
		keys.String(), entry.Word, entry.Response)
}

func buildTATPrompt(image model.ImageStimulus, story string) string {
	themes := "none recorded"
	if len(image.Themes) > 0 {
		themes = strings.Join(image.Themes, ", ")
	}

	return fmt.Sprintf(`You are an SSB psychologist assessing a Thematic Apperception Test story.
Return ONLY valid JSON:
{
  "scores": [{"parameter": "name", "score": 1-5, "remark": "one short sentence"}],
  "totalScore": sum of scores,
  "summary": "one paragraph on the candidate's officer-like qualities"
}

Score every one of these parameters, in this order, using the exact names:
- %s

Expected themes for the picture: %s
Story written in 60 seconds:
%s`,
		strings.Join(model.TATParameters, "\n- "), themes, story)
}
