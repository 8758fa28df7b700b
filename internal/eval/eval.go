// Package eval grades generated answers for relevance against the original
// question using a judge model, and normalizes raw model output before
// grading or persistence.
package eval

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"text/template"

	"github.com/rs/zerolog"

	"github.com/tomekmatuszewski/pdf-research-assistant/internal/llm"
)

// Relevance labels produced by the judge model.
const (
	Relevant       = "RELEVANT"
	PartlyRelevant = "PARTLY_RELEVANT"
	NonRelevant    = "NON_RELEVANT"
	Unknown        = "UNKNOWN"
)

// judgeTemplate asks the model to classify how well the answer addresses the
// question and to return a machine-readable verdict.
const judgeTemplate = `nothink/You are an expert evaluator for a pdf research assistant.
Your task is to analyze the relevance of the generated answer to the given question.
Based on the relevance of the generated answer, you will classify it
as "NON_RELEVANT", "PARTLY_RELEVANT", or "RELEVANT".

Here is the data for evaluation:

Question: {{.Question}}
Generated Answer: {{.Answer}}

Please analyze the content and context of the generated answer in relation to the question
and provide your evaluation in parsable JSON without using code blocks:

{
  "Relevance": "NON_RELEVANT" | "PARTLY_RELEVANT" | "RELEVANT",
  "Explanation": "[Provide a brief explanation for your evaluation]"
}`

var (
	thinkSpan  = regexp.MustCompile(`(?s)<think>.*?</think>`)
	blankLines = regexp.MustCompile(`\n{3,}`)
)

// Verdict is the relevance judgement for one question/answer pair.
type Verdict struct {
	Relevance   string `json:"Relevance"`
	Explanation string `json:"Explanation"`
}

// UnknownVerdict is returned whenever the judge output cannot be turned into
// a valid verdict.
func UnknownVerdict() Verdict {
	return Verdict{Relevance: Unknown, Explanation: "Failed to parse evaluation"}
}

// Clean normalizes raw model output: reasoning spans emitted by thinking
// models are removed, runs of blank lines are collapsed and surrounding
// whitespace is trimmed.
func Clean(raw string) string {
	cleaned := thinkSpan.ReplaceAllString(raw, "")
	cleaned = blankLines.ReplaceAllString(cleaned, "\n\n")
	return strings.TrimSpace(cleaned)
}

// Config holds evaluator configuration.
type Config struct {
	Generator llm.Generator
	Logger    zerolog.Logger
}

// Evaluator grades answers with a judge model.
type Evaluator struct {
	generator llm.Generator
	tmpl      *template.Template
	log       zerolog.Logger
}

// New creates an evaluator backed by the given generation backend.
func New(config *Config) (*Evaluator, error) {
	if config.Generator == nil {
		return nil, fmt.Errorf("generator is required")
	}
	tmpl, err := template.New("judge").Parse(judgeTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse judge template: %w", err)
	}
	return &Evaluator{generator: config.Generator, tmpl: tmpl, log: config.Logger}, nil
}

// Evaluate asks the judge model how relevant answer is to question.
//
// An error is returned only when the generation backend itself fails. Any
// malformed judge output, truncated JSON, prose around the verdict or an
// out-of-vocabulary label, degrades to UnknownVerdict without an error.
func (e *Evaluator) Evaluate(ctx context.Context, question, answer, modelID string) (Verdict, error) {
	var b strings.Builder
	err := e.tmpl.Execute(&b, map[string]string{
		"Question": question,
		"Answer":   answer,
	})
	if err != nil {
		return UnknownVerdict(), fmt.Errorf("failed to assemble judge prompt: %w", err)
	}

	raw, err := e.generator.Generate(ctx, modelID, b.String())
	if err != nil {
		return UnknownVerdict(), fmt.Errorf("evaluation call failed: %w", err)
	}

	verdict := parseVerdict(Clean(raw))
	if verdict.Relevance == Unknown {
		e.log.Warn().Str("model", modelID).Msg("judge output could not be parsed")
	}
	return verdict, nil
}

// parseVerdict extracts the verdict object from judge output. Models wrap the
// JSON in prose or code fences often enough that we scan for the outermost
// braces instead of decoding the whole string.
func parseVerdict(cleaned string) Verdict {
	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start == -1 || end == -1 || end < start {
		return UnknownVerdict()
	}

	var verdict Verdict
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &verdict); err != nil {
		return UnknownVerdict()
	}

	switch verdict.Relevance {
	case Relevant, PartlyRelevant, NonRelevant:
		return verdict
	default:
		return UnknownVerdict()
	}
}
