package generator

import (
	"bytes"
	"text/template"
)

var promptTemplate = template.Must(template.New("prompt").Parse(`You are a Jenkins expert. Generate a COMPLETE config.xml for a Pipeline job{{if .JobName}} named "{{.JobName}}"{{end}}.

Source code:
"""
{{.SourceCode}}
"""
{{- if .TestCode}}

Test code:
"""
{{.TestCode}}
"""
{{- end}}

Requirements: "{{.Requirements}}"

CRITICAL RULES:
1. Do not add a Git SCM definition and do not use 'git' or 'checkout'. The code is injected via parameters.
2. The pipeline MUST accept 'SOURCE_CODE' and 'TEST_CODE' as string parameters.
3. The pipeline script MUST write these parameters to files using 'writeFile'.
   Example: writeFile file: 'main.py', text: params.SOURCE_CODE
4. The root element must be <flow-definition plugin="workflow-job">.
5. Wrap the script in <script><![CDATA[ ... ]]></script>.
6. For Python stages use the 'python3' command directly. For Node use 'node'.
7. Return ONLY the XML document. No markdown, no commentary.
`))

func buildPrompt(req DefinitionRequest) (string, error) {
	var buf bytes.Buffer
	if err := promptTemplate.Execute(&buf, req); err != nil {
		return "", err
	}
	return buf.String(), nil
}
