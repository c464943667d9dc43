// Package intake loads the intake questionnaire the client answers before
// generation. The answers become the project's cadrage.
package intake

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"pasassistant/internal/config"
)

// Condition operators.
const (
	OperatorEquals   = "equals"
	OperatorContains = "contains"
)

// VerbosityQuestionID is the fixed id of the answer-length question.
const VerbosityQuestionID = 99

// Condition shows a question only when an earlier answer matches Value.
type Condition struct {
	QuestionID int    `json:"question_id"`
	Operator   string `json:"operator"`
	Value      string `json:"value"`
}

// Question is one intake question as served to the frontend.
type Question struct {
	ID        int        `json:"id"`
	Text      string     `json:"text"`
	Type      string     `json:"type"`
	Options   []string   `json:"options"`
	Multi     bool       `json:"multi"`
	Condition *Condition `json:"condition"`
}

// Catalog is the full intake questionnaire.
type Catalog struct {
	Questions         []Question `json:"questions"`
	VerbosityQuestion Question   `json:"verbosity_question"`
}

// NewCatalog pairs parsed questions with the verbosity question built from levels.
func NewCatalog(questions []Question, levels map[int]config.VerbosityLevel) Catalog {
	if questions == nil {
		questions = []Question{}
	}
	return Catalog{Questions: questions, VerbosityQuestion: VerbosityQuestion(levels)}
}

// VerbosityQuestion lists the configured levels in ascending order.
func VerbosityQuestion(levels map[int]config.VerbosityLevel) Question {
	keys := make([]int, 0, len(levels))
	for k := range levels {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	options := make([]string, 0, len(keys))
	for _, k := range keys {
		lvl := levels[k]
		options = append(options, fmt.Sprintf("%d — %s (%d mots max)", k, lvl.Label, lvl.MaxWords))
	}
	return Question{
		ID:      VerbosityQuestionID,
		Text:    "Quel niveau de détail souhaitez-vous pour les réponses ?",
		Type:    "options",
		Options: options,
	}
}

// Load parses the questions file at path.
func Load(path string) ([]Question, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "intake: open %s", path)
	}
	defer f.Close()

	questions, err := Parse(f)
	if err != nil {
		return nil, eris.Wrapf(err, "intake: parse %s", path)
	}
	return questions, nil
}

var quoted = regexp.MustCompile(`"([^"]+)"`)

// Parse reads the questions format. A line starting with "+ " opens a
// question; the OPTIONS:, TYPE: and MULTI: lines after it describe it. A
// question text of the form "IF <condition>: <text>" depends on the answer
// to the question just before it, e.g.
//
//	+ IF previous == "Oui": Quel hébergeur ?
//	+ IF previous contains "SaaS": Quelle offre ?
//
// Other lines are ignored. Ids are assigned from 1 in file order.
func Parse(r io.Reader) ([]Question, error) {
	var (
		questions []Question
		current   *Question
	)
	flush := func() {
		if current == nil {
			return
		}
		if len(current.Options) > 0 {
			current.Type = "options"
		}
		questions = append(questions, *current)
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case strings.HasPrefix(line, "+ "):
			flush()
			id := len(questions) + 1
			current = &Question{ID: id, Type: "text"}
			current.Text, current.Condition = splitCondition(strings.TrimSpace(line[2:]), id-1)
		case current == nil:
		case strings.HasPrefix(line, "OPTIONS:"):
			var opts []string
			for _, o := range strings.Split(strings.TrimPrefix(line, "OPTIONS:"), ",") {
				opts = append(opts, strings.TrimSpace(o))
			}
			current.Options = opts
		case strings.HasPrefix(line, "TYPE:"):
			current.Type = strings.TrimSpace(strings.TrimPrefix(line, "TYPE:"))
		case strings.HasPrefix(line, "MULTI:"):
			current.Multi = strings.EqualFold(strings.TrimSpace(strings.TrimPrefix(line, "MULTI:")), "true")
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, eris.Wrap(err, "intake: read questions")
	}
	flush()
	return questions, nil
}

// splitCondition separates an "IF <condition>: <text>" prefix. The condition
// refers to the question with id previous.
func splitCondition(text string, previous int) (string, *Condition) {
	if len(text) < 3 || !strings.EqualFold(text[:3], "IF ") {
		return text, nil
	}
	raw, rest, ok := strings.Cut(text, ":")
	if !ok {
		return text, nil
	}
	raw = strings.TrimSpace(raw[3:])

	cond := &Condition{QuestionID: previous, Operator: OperatorEquals}
	if strings.Contains(raw, "contains") {
		cond.Operator = OperatorContains
	}
	if m := quoted.FindStringSubmatch(raw); m != nil {
		cond.Value = m[1]
	}
	return strings.TrimSpace(rest), cond
}
