package dashboard

import (
	"bytes"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/paccolamano/dashkit/format"
)

var indexTemplate = template.Must(template.New("index").Funcs(template.FuncMap{
	"currency": format.Currency,
	"date":     format.Time,
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
<h1>{{.Title}}</h1>
<dl>
<dt>Users</dt><dd>{{.Stats.Users}}</dd>
<dt>Active sessions</dt><dd>{{.Stats.ActiveSessions}}</dd>
<dt>Revenue</dt><dd>{{currency .Stats.Revenue}}</dd>
<dt>Uptime</dt><dd>{{.Stats.Uptime}}</dd>
</dl>
<table>
<tr><th>Name</th><th>Role</th></tr>
{{- range .Users}}
<tr><td>{{.Name}}</td><td>{{.Role}}</td></tr>
{{- end}}
</table>
<p>Updated {{date .Updated}}</p>
</body>
</html>
`))

type indexPage struct {
	Title   string
	Stats   Stats
	Users   []User
	Updated time.Time
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data, updated := s.store.Snapshot()

	var buf bytes.Buffer
	err := indexTemplate.Execute(&buf, indexPage{
		Title:   s.title,
		Stats:   data.CurrentStats(),
		Users:   data.Users,
		Updated: updated,
	})
	if err != nil {
		s.logger.LogAttrs(r.Context(), slog.LevelError, "failed to render index", slog.String("error", err.Error()))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
