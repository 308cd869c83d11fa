package quizgen

import (
	"encoding/json"
	"fmt"
	"strings"

	"learnnest/internal/domain"
)

const generatorSystemPrompt = `You are an expert educational assessment writer. You write quiz questions that are
strictly grounded in the study material you are given. You reply with a JSON array only:
no prose, no Markdown, no comments.`

const semanticSystemPrompt = `You are a meticulous quiz reviewer. You fact-check quiz questions against reference
material and judge their quality. You reply with a JSON array only: no prose, no Markdown.`

const keywordSystemPrompt = `You extract search keywords from study notes. Reply with a single line of
comma-separated keywords and nothing else.`

// maxSemanticContextChars bounds the reference context sent for validation.
const maxSemanticContextChars = 12000

// maxSeedInputChars bounds how much of the source is sent for keyword extraction.
const maxSeedInputChars = 6000

func buildKeywordPrompt(sourceText string) string {
	return fmt.Sprintf(`Extract 5 to 8 concise keywords or short key phrases that capture the main topics of
the following notes. Keep them in the language of the notes.

Notes:
"""
%s
"""`, truncateRunes(sourceText, maxSeedInputChars))
}

func buildGeneratorPrompt(in GenerateInput) string {
	types := make([]string, 0, len(in.AllowedTypes))
	for _, t := range in.AllowedTypes {
		types = append(types, string(t))
	}
	titles := make([]string, 0, len(in.RAGSources))
	for _, s := range in.RAGSources {
		if s.Title != "" {
			titles = append(titles, s.Title)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Write exactly %d quiz questions at %s difficulty in the language with code %q.\n\n",
		in.Count, in.Difficulty, in.LanguageCode)
	fmt.Fprintf(&b, "Allowed question types: %s.\n", strings.Join(types, ", "))
	fmt.Fprintf(&b, "Mix the cognitive levels (%s) across the set.\n\n", strings.Join(domain.CognitiveLevels, ", "))

	b.WriteString(`Rules:
1. Use ONLY facts stated in the STUDY MATERIAL or the REFERENCE CONTEXT below. Do not invent facts.
2. A "multiple-choice" question has exactly 4 options, all distinct, exactly one of them correct,
   and "correctAnswer" repeats the correct option verbatim.
3. A "true-false" question has "correctAnswer" set to "true" or "false" and no options.
4. A "short-answer" question has a concise "correctAnswer" string and no options.
5. A "fill-blank" question marks each blank with "____" and "correctAnswer" is an array of
   acceptable answers in order.
6. "explanation" justifies the answer in at most 400 characters.
7. "sources" lists the titles of reference passages you relied on, chosen only from the
   AVAILABLE SOURCES list; use an empty array when none apply.
8. "accessibilityNote" briefly describes anything a screen-reader user should know, or "".

Return a JSON array where every element has exactly this shape:
{
  "id": "q1",
  "type": "multiple-choice",
  "question": "…",
  "options": ["…", "…", "…", "…"],
  "correctAnswer": "…",
  "explanation": "…",
  "cognitiveLevel": "understand",
  "sources": ["…"],
  "languageCode": "en",
  "accessibilityNote": ""
}

`)
	if len(titles) > 0 {
		fmt.Fprintf(&b, "AVAILABLE SOURCES: %s\n\n", strings.Join(titles, "; "))
	} else {
		b.WriteString("AVAILABLE SOURCES: none\n\n")
	}
	if strings.TrimSpace(in.RAGContext) != "" {
		fmt.Fprintf(&b, "REFERENCE CONTEXT:\n\"\"\"\n%s\n\"\"\"\n\n", in.RAGContext)
	}
	fmt.Fprintf(&b, "STUDY MATERIAL:\n\"\"\"\n%s\n\"\"\"\n", in.ChunkText)
	return b.String()
}

// semanticQuestion is the view of a candidate shown to the reviewer model.
type semanticQuestion struct {
	Index         int                 `json:"index"`
	Type          domain.QuestionType `json:"type"`
	Question      string              `json:"question"`
	Options       []string            `json:"options,omitempty"`
	CorrectAnswer domain.Answer       `json:"correctAnswer"`
	Explanation   string              `json:"explanation,omitempty"`
}

func buildSemanticPrompt(in SemanticInput) (string, error) {
	view := make([]semanticQuestion, len(in.Questions))
	for i, q := range in.Questions {
		view[i] = semanticQuestion{
			Index:         i,
			Type:          q.Type,
			Question:      q.Question,
			Options:       q.Options,
			CorrectAnswer: q.CorrectAnswer,
			Explanation:   q.Explanation,
		}
	}
	payload, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode questions for review: %w", err)
	}

	reference := strings.TrimSpace(truncateRunes(in.RAGContext, maxSemanticContextChars))
	if reference == "" {
		reference = "(no reference context available; judge only internal consistency and quality)"
	}

	difficulty := in.Difficulty
	if difficulty == "" {
		difficulty = DefaultDifficulty
	}

	return fmt.Sprintf(`Review each quiz question below. The target language code is %q and the stated difficulty level is %q.

A question is valid only if ALL of these hold:
1. It is factually correct according to the REFERENCE CONTEXT only.
2. It contains no harmful, offensive or biased content.
3. Its difficulty is appropriate for the stated level of a study quiz.
4. For multiple-choice, the distractors are plausible but clearly wrong.
5. It is clearly phrased in the target language.
6. The correct answer and the explanation agree with each other.

Return a JSON array with exactly %d elements, in the same order as the questions:
[{"valid": true, "reasons": []}, {"valid": false, "reasons": ["…"]}]
Give a short reason for every failed criterion.

REFERENCE CONTEXT:
"""
%s
"""

QUESTIONS:
%s
`, in.LanguageCode, difficulty, len(in.Questions), reference, payload), nil
}

// truncateRunes returns at most n runes of s.
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
