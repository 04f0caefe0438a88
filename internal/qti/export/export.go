package export

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/mind-engage/mindengage-cbt/internal/cbt"
)

// BuildPackage writes a zipped QTI 2.1 package with one single-choice item per question.
// Difficulty, subject and topic travel as extension attributes on assessmentItem.
func BuildPackage(qs []cbt.Question) ([]byte, error) {
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)

	mf := imsManifest{
		Xmlns:     "http://www.imsglobal.org/xsd/imscp_v1p1",
		Resources: []imsResource{},
	}
	for _, q := range qs {
		itemName := fmt.Sprintf("%s.xml", q.ID)
		mf.Resources = append(mf.Resources, imsResource{
			Identifier: q.ID,
			Type:       "imsqti_item_xmlv2p1",
			Href:       itemName,
			Files:      []imsFile{{Href: itemName}},
		})
		w, err := zw.Create(itemName)
		if err != nil {
			return nil, err
		}
		if _, err := io.WriteString(w, buildItemXML(q)); err != nil {
			return nil, err
		}
	}

	mfw, err := zw.Create("imsmanifest.xml")
	if err != nil {
		return nil, err
	}
	b, err := xml.MarshalIndent(mf, "", "  ")
	if err != nil {
		return nil, err
	}
	if _, err := io.WriteString(mfw, xml.Header); err != nil {
		return nil, err
	}
	if _, err := mfw.Write(b); err != nil {
		return nil, err
	}

	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type imsManifest struct {
	XMLName   xml.Name      `xml:"manifest"`
	Xmlns     string        `xml:"xmlns,attr,omitempty"`
	Resources []imsResource `xml:"resources>resource"`
}
type imsResource struct {
	Identifier string    `xml:"identifier,attr"`
	Type       string    `xml:"type,attr"`
	Href       string    `xml:"href,attr"`
	Files      []imsFile `xml:"file"`
}
type imsFile struct {
	Href string `xml:"href,attr"`
}

func buildItemXML(q cbt.Question) string {
	esc := html.EscapeString
	var choices strings.Builder
	for _, o := range q.Options {
		fmt.Fprintf(&choices, `<simpleChoice identifier="%s">%s</simpleChoice>`, esc(o.Label), esc(o.Text))
	}
	var feedback string
	if q.Explanation != "" {
		feedback = fmt.Sprintf(`
  <modalFeedback outcomeIdentifier="FEEDBACK" identifier="EXPLANATION" showHide="show">%s</modalFeedback>`, esc(q.Explanation))
	}
	points := q.Points
	if points < 1 {
		points = 1
	}
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<assessmentItem identifier="%s" title="%s" difficulty="%s" subject="%s" topic="%s" xmlns="http://www.imsglobal.org/xsd/imsqti_v2p1">
  <responseDeclaration identifier="RESPONSE" cardinality="single">
    <correctResponse><value>%s</value></correctResponse>
  </responseDeclaration>
  <outcomeDeclaration identifier="MAXSCORE" baseType="float">
    <defaultValue><value>%d</value></defaultValue>
  </outcomeDeclaration>
  <itemBody>
    <p>%s</p>
    <choiceInteraction responseIdentifier="RESPONSE" maxChoices="1">
      %s
    </choiceInteraction>
  </itemBody>%s
</assessmentItem>`,
		esc(q.ID), esc(q.ID), esc(string(q.Difficulty)), esc(q.Subject), esc(q.Topic),
		esc(q.CorrectAnswer), points, esc(q.Prompt), choices.String(), feedback,
	)
}
