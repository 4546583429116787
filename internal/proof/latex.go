package proof

import (
	"sort"
	"strconv"
	"strings"
	"text/template"

	"dnsc/internal/encoding"
)

// latexTemplate renders a ProofDocument to the deterministic LaTeX body
// described by spec.md §4.I: sorted input table, sorted equation registry,
// steps sorted by step id, sorted outputs.
var latexTemplate = template.Must(template.New("proof.tex").Funcs(template.FuncMap{
	"escape": escapeLatex,
}).Parse(`\section*{ {{escape .Header.CaseName}} }
\subsection*{Inputs}
{{range .InputRows}}\textbf{ {{escape .Key}} } = {{.Value}} \\
{{end}}
\subsection*{Equations}
{{range .Equations}}\paragraph{ {{escape .EquationID}} }
{{.Latex}}
{{end}}
\subsection*{Steps}
{{range .Steps}}\subsubsection*{Step {{.StepNumber}}: {{escape .Title}}}
{{.SubstitutionLatex}}
{{end}}
\subsection*{Outputs}
{{range .Outputs}}\textbf{ {{escape .Key}} } = {{.Value}} \\
{{end}}
`))

type latexInputRow struct {
	Key   string
	Value string
}

type latexEquation struct {
	EquationID string
	Latex      string
}

type latexDoc struct {
	Header     Header
	InputRows  []latexInputRow
	Equations  []latexEquation
	Steps      []Step
	Outputs    []latexInputRow
}

// RenderLatex produces the deterministic LaTeX text for p. Section contents
// are sorted independently of p.Steps' declaration order (the inputs table
// by key, the equation registry by equation id, outputs by key); the Steps
// section itself is sorted by step id, matching the per-step ordering the
// ProofDocument's canonical payload does not otherwise impose.
func RenderLatex(p ProofDocument) (string, error) {
	inputKeys := map[string]string{}
	equationSeen := map[string]string{}
	steps := append([]Step(nil), p.Steps...)
	sort.Slice(steps, func(i, j int) bool { return steps[i].StepID < steps[j].StepID })

	for _, s := range steps {
		for k, v := range s.InputValues {
			inputKeys[k] = formatFloat(v)
		}
		if _, ok := equationSeen[s.EquationID]; !ok {
			equationSeen[s.EquationID] = s.Latex
		}
	}

	doc := latexDoc{
		Header:    p.Header,
		InputRows: sortedRows(inputKeys),
		Steps:     steps,
	}
	for id, latex := range equationSeen {
		doc.Equations = append(doc.Equations, latexEquation{EquationID: id, Latex: latex})
	}
	sort.Slice(doc.Equations, func(i, j int) bool { return doc.Equations[i].EquationID < doc.Equations[j].EquationID })

	outputs := map[string]string{}
	for k, v := range p.Summary.KeyResults {
		rendered, err := encoding.Encode(v)
		if err != nil {
			return "", err
		}
		outputs[k] = string(rendered)
	}
	doc.Outputs = sortedRows(outputs)

	var buf strings.Builder
	if err := latexTemplate.Execute(&buf, doc); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func sortedRows(m map[string]string) []latexInputRow {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]latexInputRow, 0, len(keys))
	for _, k := range keys {
		out = append(out, latexInputRow{Key: k, Value: m[k]})
	}
	return out
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimRight(s, ".")
	}
	return s
}

// escapeLatex applies the minimal, stable escape set spec.md §4.I calls for
// on user-supplied strings: the characters LaTeX treats specially.
func escapeLatex(s string) string {
	replacer := strings.NewReplacer(
		`\`, `\textbackslash{}`,
		`&`, `\&`,
		`%`, `\%`,
		`$`, `\$`,
		`#`, `\#`,
		`_`, `\_`,
		`{`, `\{`,
		`}`, `\}`,
		`~`, `\textasciitilde{}`,
		`^`, `\textasciicircum{}`,
	)
	return replacer.Replace(s)
}
