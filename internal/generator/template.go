package generator

import (
	"bytes"
	"context"
	"encoding/xml"
	"strings"
	"text/template"

	"git.home.luguber.info/inful/autopipe/internal/foundation/errors"
)

// Template renders a fixed Node/Jest pipeline definition without any network access.
type Template struct {
	tpl *template.Template
}

func NewTemplate() *Template {
	return &Template{tpl: definitionTemplate}
}

func (t *Template) Generate(ctx context.Context, req DefinitionRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", errors.WrapError(err, errors.CategoryGeneration, "generation canceled").Build()
	}
	var buf bytes.Buffer
	if err := t.tpl.Execute(&buf, req); err != nil {
		return "", errors.WrapError(err, errors.CategoryGeneration, "failed to render job definition").Build()
	}
	return buf.String(), nil
}

func xmlEscape(s string) string {
	var sb strings.Builder
	_ = xml.EscapeText(&sb, []byte(strings.TrimSpace(s)))
	return sb.String()
}

var definitionTemplate = template.Must(template.New("definition").
	Funcs(template.FuncMap{"xml": xmlEscape}).
	Parse(`<?xml version='1.1' encoding='UTF-8'?>
<flow-definition plugin="workflow-job">
  <description>{{if .Requirements}}{{xml .Requirements}}{{else}}Generated pipeline{{end}}</description>
  <keepDependencies>false</keepDependencies>
  <properties>
    <hudson.model.ParametersDefinitionProperty>
      <parameterDefinitions>
        <hudson.model.StringParameterDefinition>
          <name>SOURCE_CODE</name>
          <description>Application source code</description>
          <trim>false</trim>
        </hudson.model.StringParameterDefinition>
        <hudson.model.StringParameterDefinition>
          <name>TEST_CODE</name>
          <description>Unit test code</description>
          <trim>false</trim>
        </hudson.model.StringParameterDefinition>
        <hudson.model.StringParameterDefinition>
          <name>DEPENDENCIES</name>
          <description>Space-separated npm packages to install</description>
          <defaultValue></defaultValue>
          <trim>true</trim>
        </hudson.model.StringParameterDefinition>
      </parameterDefinitions>
    </hudson.model.ParametersDefinitionProperty>
  </properties>
  <definition class="org.jenkinsci.plugins.workflow.cps.CpsFlowDefinition" plugin="workflow-cps">
    <script><![CDATA[
pipeline {
    agent any
    tools {
        nodejs 'NodeJS'
    }
    stages {
        stage('Initialize Workspace') {
            steps {
                deleteDir()
                sh 'npm init -y'
            }
        }
        stage('Install Dependencies') {
            steps {
                script {
                    def deps = params.DEPENDENCIES ?: ""
                    echo "Installing dependencies: jest ${deps}"
                    sh "npm install jest ${deps} --save-dev"
                }
            }
        }
        stage('Inject Code') {
            steps {
                writeFile file: 'index.js', text: params.SOURCE_CODE
                writeFile file: 'index.test.js', text: params.TEST_CODE
            }
        }
        stage('Run Tests') {
            steps {
                sh 'npx jest index.test.js --passWithNoTests --colors'
            }
        }
    }
}
]]></script>
    <sandbox>true</sandbox>
  </definition>
  <triggers/>
  <disabled>false</disabled>
</flow-definition>
`))
