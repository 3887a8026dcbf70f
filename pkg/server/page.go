package server

import (
	"html/template"
	"io"
)

type pageData struct {
	Title      string
	Scene      template.HTML
	WithClient bool
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { margin: 0; font-family: sans-serif; }
#page { display: flex; justify-content: center; padding: 16px; }
</style>
</head>
<body>
<div id="page"><div id="app">{{.Scene}}</div></div>
{{if .WithClient}}<script src="/assets/wasm_exec.js"></script>
<script>
const go = new Go();
WebAssembly.instantiateStreaming(fetch("/assets/app.wasm"), go.importObject)
  .then(result => go.run(result.instance));
</script>{{end}}
</body>
</html>
`))

func writePage(w io.Writer, data pageData) error {
	return pageTemplate.Execute(w, data)
}
