package parser

import (
	"encoding/xml"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

type assessmentItem struct {
	XMLName      xml.Name             `xml:"assessmentItem"`
	Identifier   string               `xml:"identifier,attr"`
	Title        string               `xml:"title,attr"`
	Difficulty   string               `xml:"difficulty,attr"` // extension, written by our exporter
	Subject      string               `xml:"subject,attr"`    // extension
	Topic        string               `xml:"topic,attr"`      // extension
	Body         itemBody             `xml:"itemBody"`
	ResponseDecl responseDeclaration  `xml:"responseDeclaration"`
	OutcomeDecls []outcomeDeclaration `xml:"outcomeDeclaration"`
	Feedback     []modalFeedback      `xml:"modalFeedback"`
}
type itemBody struct {
	RawXML string `xml:",innerxml"`
}
type responseDeclaration struct {
	Identifier  string `xml:"identifier,attr"`
	Cardinality string `xml:"cardinality,attr"` // single|multiple
	Correct     struct {
		Values []string `xml:"value"`
	} `xml:"correctResponse"`
}
type outcomeDeclaration struct {
	Identifier string `xml:"identifier,attr"`
	BaseType   string `xml:"baseType,attr"`
	Default    struct {
		Values []string `xml:"value"`
	} `xml:"defaultValue"`
}
type modalFeedback struct {
	Identifier string `xml:"identifier,attr"`
	Inner      string `xml:",innerxml"`
}

type InteractionType string

const (
	InteractionChoiceSingle InteractionType = "choice_single"
	InteractionChoiceMulti  InteractionType = "choice_multi"
	InteractionTextEntry    InteractionType = "text_entry"
	InteractionExtendedText InteractionType = "extended_text"
)

type ParsedItem struct {
	ID          string
	Title       string
	PromptHTML  string
	Kind        InteractionType
	Choices     []Choice
	AnswerKey   []string // correct choice identifiers or strings
	Points      int
	Difficulty  string
	Subject     string
	Topic       string
	Explanation string
}

type Choice struct {
	ID    string
	Label string // HTML
}

func ParseItemFile(baseDir, rel string) (ParsedItem, error) {
	b, err := os.ReadFile(filepath.Join(baseDir, filepath.Clean(rel)))
	if err != nil {
		return ParsedItem{}, err
	}
	return ParseItem(b)
}

// ParseItem reads one assessmentItem. The interaction type is inferred from the
// body; choices are read from simpleChoice elements.
func ParseItem(b []byte) (ParsedItem, error) {
	var it assessmentItem
	if err := xml.Unmarshal(b, &it); err != nil {
		return ParsedItem{}, err
	}

	pi := ParsedItem{
		ID:         it.Identifier,
		Title:      it.Title,
		PromptHTML: extractPrompt(it.Body.RawXML),
		Points:     maxScore(it.OutcomeDecls),
		Difficulty: strings.ToLower(strings.TrimSpace(it.Difficulty)),
		Subject:    strings.TrimSpace(it.Subject),
		Topic:      strings.TrimSpace(it.Topic),
	}
	for _, f := range it.Feedback {
		if s := strings.TrimSpace(f.Inner); s != "" {
			pi.Explanation = s
			break
		}
	}

	body := strings.ToLower(it.Body.RawXML)
	switch {
	case strings.Contains(body, "<choiceinteraction"):
		if it.ResponseDecl.Cardinality == "multiple" {
			pi.Kind = InteractionChoiceMulti
		} else {
			pi.Kind = InteractionChoiceSingle
		}
		pi.Choices = extractChoices(it.Body.RawXML)
		pi.AnswerKey = it.ResponseDecl.Correct.Values
	case strings.Contains(body, "<textentryinteraction"):
		pi.Kind = InteractionTextEntry
		pi.AnswerKey = it.ResponseDecl.Correct.Values
	default:
		pi.Kind = InteractionExtendedText
	}
	return pi, nil
}

// maxScore reads MAXSCORE's default value, falling back to 1.
func maxScore(decls []outcomeDeclaration) int {
	for _, d := range decls {
		if !strings.EqualFold(d.Identifier, "MAXSCORE") || len(d.Default.Values) == 0 {
			continue
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(d.Default.Values[0]), 64)
		if err == nil && f >= 1 {
			return int(f)
		}
	}
	return 1
}

func extractPrompt(inner string) string {
	l := strings.ToLower(inner)
	idx := -1
	for _, tag := range []string{"<choiceinteraction", "<textentryinteraction", "<extendedtextinteraction"} {
		if i := strings.Index(l, tag); i != -1 && (idx == -1 || i < idx) {
			idx = i
		}
	}
	if idx == -1 {
		return strings.TrimSpace(inner)
	}
	return strings.TrimSpace(inner[:idx])
}

// extractChoices collects <simpleChoice identifier="A">Label</simpleChoice> in document order.
func extractChoices(inner string) []Choice {
	out := []Choice{}
	dec := xml.NewDecoder(strings.NewReader(inner))
	for {
		t, err := dec.Token()
		if err != nil {
			break
		}
		se, ok := t.(xml.StartElement)
		if !ok || !strings.EqualFold(se.Name.Local, "simpleChoice") {
			continue
		}
		var id string
		for _, a := range se.Attr {
			if strings.EqualFold(a.Name.Local, "identifier") {
				id = a.Value
				break
			}
		}
		var text struct {
			Inner string `xml:",innerxml"`
		}
		if err := dec.DecodeElement(&text, &se); err == nil {
			out = append(out, Choice{ID: id, Label: strings.TrimSpace(text.Inner)})
		}
	}
	return out
}
