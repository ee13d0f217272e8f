// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package digest

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/meshintel/mlchem-digest/pkg/types"
)

// digestTmpl renders the HTML body of one digest email. Entries arrive in
// final presentation order; the template does not reorder them.
var digestTmpl = template.Must(template.New("digest").Parse(`<h2>ML×Chem Daily Digest – {{.Date}}</h2>
<ol>
{{- range .Entries}}
<li>
<b>{{.Title}}</b><br>
{{.Source}} / <span style="font-size:90%">{{.PublishedAt.Format "2006-01-02"}}</span><br>
{{- if .Summary}}
{{.Summary}}<br>
{{- end}}
{{- if .DOI}}
DOI: {{.DOI}}<br>
{{- end}}
<a href="{{.URL}}">link</a>
</li>
{{- end}}
</ol>
<p style="font-size:90%;color:#666;">Keywords: {{.MLKeywords}} × {{.ChemKeywords}}</p>
`))

// ComposeHTML renders the digest entries into the HTML email body.
func ComposeHTML(entries []types.DigestEntry, filterCfg types.FilterConfig, now time.Time) (string, error) {
	data := struct {
		Date         string
		Entries      []types.DigestEntry
		MLKeywords   string
		ChemKeywords string
	}{
		Date:         now.Format("2006-01-02"),
		Entries:      entries,
		MLKeywords:   strings.Join(filterCfg.MLKeywords, ", "),
		ChemKeywords: strings.Join(filterCfg.ChemKeywords, ", "),
	}

	var b strings.Builder
	if err := digestTmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("rendering digest: %w", err)
	}
	return b.String(), nil
}

// Subject returns the digest email subject line.
func Subject(now time.Time) string {
	return fmt.Sprintf("[ML×Chem] Daily Digest %s", now.Format("2006-01-02"))
}
