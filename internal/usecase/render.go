package usecase

import (
	"sort"
	"strings"
	"time"

	"github.com/xavierca1/leadmail/internal/entity"
)

type Rendered struct {
	Subject string
	Body    string
}

// RenderTemplate replaces every {{key}} whose key is in vars. Unknown
// placeholders stay verbatim and substituted values are not rescanned.
func RenderTemplate(tmpl entity.EmailTemplate, vars map[string]string) Rendered {
	r := placeholderReplacer(vars)
	return Rendered{
		Subject: r.Replace(tmpl.Subject),
		Body:    r.Replace(tmpl.Body),
	}
}

func placeholderReplacer(vars map[string]string) *strings.Replacer {
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		pairs = append(pairs, "{{"+k+"}}", vars[k])
	}
	return strings.NewReplacer(pairs...)
}

// LeadVariables is the variable map used for lead mailings. Missing
// attributes render as empty strings.
func LeadVariables(lead entity.Lead, today string) map[string]string {
	return map[string]string{
		"first_name": lead.FirstName,
		"last_name":  lead.LastName,
		"email":      lead.Email,
		"profession": lead.Profession,
		"company":    lead.Company,
		"today":      today,
	}
}

// TodayString formats now the way the operators read dates (dd/mm/yyyy).
func TodayString(now time.Time) string {
	return now.Format("02/01/2006")
}

var lineBreaks = strings.NewReplacer("\r\n", "<br>", "\n", "<br>")

func TextToHTML(body string) string {
	return lineBreaks.Replace(body)
}
