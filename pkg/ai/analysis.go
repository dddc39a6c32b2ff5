package ai

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/tidwall/jsonc"
)

// Placeholder texts used when a reply cannot be mapped onto the analysis schema.
const (
	SeeTechnicalFeedback  = "See technical feedback"
	DefaultFollowUp       = "Can you explain your approach?"
	ProseScore            = 7
	unavailableAnalysis   = "Unable to analyze without API access"
	degradedFeedback      = "I'm unable to analyze your code right now because the AI interviewer could not be reached. Your submission has been saved, so feel free to keep refining it and submit again in a moment."
	degradedFollowUpQuery = "While the analysis is unavailable, can you walk me through the time and space complexity of your solution?"
)

// ExtractionPath records how an AnalysisResult was obtained from a reply.
type ExtractionPath string

const (
	// PathStructured means a JSON object was decoded and validated.
	PathStructured ExtractionPath = "structured"
	// PathProse means the reply carried no structured candidate and was used as prose.
	PathProse ExtractionPath = "prose"
	// PathFallback means a structured candidate was found but rejected, so the prose policy applied.
	PathFallback ExtractionPath = "fallback"
	// PathDegraded means the backend failed and the fixed degraded result was substituted.
	PathDegraded ExtractionPath = "degraded"
)

// AnalysisResult is the fixed five-field critique of a code submission.
type AnalysisResult struct {
	TechnicalFeedback  string `json:"technical_feedback"`
	ComplexityAnalysis string `json:"complexity_analysis"`
	CodeQuality        string `json:"code_quality"`
	FollowUpQuestion   string `json:"follow_up_question"`
	Score              int    `json:"score"`
}

// Extraction is the outcome of ExtractAnalysis. Err is set when a structured candidate
// was rejected; Result is always fully populated.
type Extraction struct {
	Result AnalysisResult
	Path   ExtractionPath
	Err    error
}

const analysisSchemaDocument = `{
  "type": "object",
  "required": ["technical_feedback", "complexity_analysis", "code_quality", "follow_up_question", "score"],
  "properties": {
    "technical_feedback": {"type": "string", "minLength": 1},
    "complexity_analysis": {"type": "string", "minLength": 1},
    "code_quality": {"type": "string", "minLength": 1},
    "follow_up_question": {"type": "string", "minLength": 1},
    "score": {"type": "integer", "minimum": 0, "maximum": 10}
  }
}`

var analysisSchema = jsonschema.MustCompileString("analysis.schema.json", analysisSchemaDocument)

var errNoCandidate = errors.New("no structured candidate")

// DegradedAnalysis is substituted when the backend cannot produce an analysis.
func DegradedAnalysis() AnalysisResult {
	return AnalysisResult{
		TechnicalFeedback:  degradedFeedback,
		ComplexityAnalysis: unavailableAnalysis,
		CodeQuality:        unavailableAnalysis,
		FollowUpQuestion:   degradedFollowUpQuery,
		Score:              0,
	}
}

// ProseAnalysis wraps an unstructured reply into the analysis shape.
func ProseAnalysis(reply string) AnalysisResult {
	return AnalysisResult{
		TechnicalFeedback:  reply,
		ComplexityAnalysis: SeeTechnicalFeedback,
		CodeQuality:        SeeTechnicalFeedback,
		FollowUpQuestion:   DefaultFollowUp,
		Score:              ProseScore,
	}
}

// ExtractAnalysis recovers an AnalysisResult from a free-form model reply.
//
// Candidates are tried in order: the first ```json fence, then the first fence of any kind,
// then (for replies without fences) the outermost {...} span. A candidate that fails to decode
// or violates the schema is not propagated; the prose policy applies and Err records why.
func ExtractAnalysis(reply string) Extraction {
	candidate, err := structuredCandidate(reply)
	if errors.Is(err, errNoCandidate) {
		return Extraction{Result: ProseAnalysis(reply), Path: PathProse}
	}

	result, err := decodeAnalysis(candidate)
	if err != nil {
		return Extraction{Result: ProseAnalysis(reply), Path: PathFallback, Err: err}
	}

	return Extraction{Result: result, Path: PathStructured}
}

func structuredCandidate(reply string) (string, error) {
	fences := scanFences(reply)
	for _, f := range fences {
		if strings.EqualFold(f.info, "json") {
			return f.body, nil
		}
	}
	if len(fences) > 0 {
		return fences[0].body, nil
	}

	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start >= 0 && end > start {
		return reply[start : end+1], nil
	}

	return "", errNoCandidate
}

func decodeAnalysis(candidate string) (AnalysisResult, error) {
	raw := jsonc.ToJSON([]byte(strings.TrimSpace(candidate)))

	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	var document interface{}
	if err := decoder.Decode(&document); err != nil {
		return AnalysisResult{}, fmt.Errorf("decode analysis json: %w", err)
	}

	if err := analysisSchema.Validate(document); err != nil {
		return AnalysisResult{}, fmt.Errorf("validate analysis json: %w", err)
	}

	var payload struct {
		TechnicalFeedback  string      `json:"technical_feedback"`
		ComplexityAnalysis string      `json:"complexity_analysis"`
		CodeQuality        string      `json:"code_quality"`
		FollowUpQuestion   string      `json:"follow_up_question"`
		Score              json.Number `json:"score"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return AnalysisResult{}, fmt.Errorf("map analysis json: %w", err)
	}

	score, err := payload.Score.Float64()
	if err != nil {
		return AnalysisResult{}, fmt.Errorf("parse analysis score: %w", err)
	}

	return AnalysisResult{
		TechnicalFeedback:  payload.TechnicalFeedback,
		ComplexityAnalysis: payload.ComplexityAnalysis,
		CodeQuality:        payload.CodeQuality,
		FollowUpQuestion:   payload.FollowUpQuestion,
		Score:              clampScore(int(math.Round(score))),
	}, nil
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 10 {
		return 10
	}
	return score
}

type fence struct {
	info string
	body string
}

const fenceMarker = "```"

// scanFences returns the fenced regions of text in order of appearance. An unterminated
// fence runs to the end of the text.
func scanFences(text string) []fence {
	var fences []fence
	rest := text
	for {
		open := strings.Index(rest, fenceMarker)
		if open < 0 {
			return fences
		}
		rest = rest[open+len(fenceMarker):]

		infoLen := 0
		for infoLen < len(rest) && isInfoByte(rest[infoLen]) {
			infoLen++
		}
		info := rest[:infoLen]
		rest = rest[infoLen:]

		closing := strings.Index(rest, fenceMarker)
		if closing < 0 {
			return append(fences, fence{info: info, body: rest})
		}
		fences = append(fences, fence{info: info, body: rest[:closing]})
		rest = rest[closing+len(fenceMarker):]
	}
}

func isInfoByte(b byte) bool {
	switch {
	case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b >= '0' && b <= '9':
		return true
	case b == '-' || b == '_' || b == '+' || b == '.' || b == '#':
		return true
	}
	return false
}
