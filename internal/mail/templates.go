package mail

import (
	"bytes"
	"embed"
	"fmt"
	htmltmpl "html/template"
	texttmpl "text/template"
)

//go:embed templates/*.txt templates/*.html
var templateFS embed.FS

// Template names understood by Render.
const (
	TemplateVerification        = "verification"
	TemplateConfirmation        = "confirmation"
	TemplateCancellation        = "cancellation"
	TemplateTeacherNotice       = "teacher_notice"
	TemplateRequestVerification = "request_verification"
)

var subjects = map[string]string{
	TemplateVerification:        "Bitte bestätigen Sie Ihre Terminbuchung",
	TemplateConfirmation:        "Ihr Termin am Elternsprechtag ist bestätigt",
	TemplateCancellation:        "Ihr Termin am Elternsprechtag wurde storniert",
	TemplateTeacherNotice:       "Neue bestätigte Terminanfrage",
	TemplateRequestVerification: "Bitte bestätigen Sie Ihre Terminanfrage",
}

var (
	textTemplates = texttmpl.Must(texttmpl.ParseFS(templateFS, "templates/*.txt"))
	htmlTemplates = htmltmpl.Must(htmltmpl.ParseFS(templateFS, "templates/*.html"))
)

// TemplateData is the data available to every mail template.
type TemplateData struct {
	VisitorName  string
	StudentName  string
	TraineeName  string
	CompanyName  string
	ClassName    string
	TeacherName  string
	Room         string
	Date         string
	Time         string
	Link         string
	Message      string
	RequestedFor string
}

// Render builds a message addressed to `to` from the named template pair.
func Render(name, to string, data TemplateData) (Message, error) {
	subject, ok := subjects[name]
	if !ok {
		return Message{}, fmt.Errorf("mail: unknown template %q", name)
	}
	var text, html bytes.Buffer
	if err := textTemplates.ExecuteTemplate(&text, name+".txt", data); err != nil {
		return Message{}, fmt.Errorf("mail: render %s text: %w", name, err)
	}
	if err := htmlTemplates.ExecuteTemplate(&html, name+".html", data); err != nil {
		return Message{}, fmt.Errorf("mail: render %s html: %w", name, err)
	}
	return Message{To: to, Subject: subject, Text: text.String(), HTML: html.String()}, nil
}
