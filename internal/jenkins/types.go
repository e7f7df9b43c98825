package jenkins

// Endpoint identifies a CI server and the static credential pair used against it.
type Endpoint struct {
	Address  string
	Username string
	Token    string
}

// BuildParameters are the form fields sent with a parameterized build trigger.
type BuildParameters struct {
	SourceCode string
	TestCode   string
}

// TriggerResult is returned when the CI server accepted a build trigger.
type TriggerResult struct {
	// QueueLocation is the Location header pointing at the queued item; it may be empty.
	QueueLocation string
}

// JobDescriptor pairs a job name with its definition document. The definition is opaque XML.
type JobDescriptor struct {
	Name       string
	Definition string
}

// Parameter names the generated job definitions must declare.
const (
	ParamSourceCode = "SOURCE_CODE"
	ParamTestCode   = "TEST_CODE"
)

type jobList struct {
	Jobs []struct {
		Name string `json:"name"`
	} `json:"jobs"`
}
