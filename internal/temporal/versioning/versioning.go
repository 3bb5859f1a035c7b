// Package versioning defines workflow names and task queue names.
package versioning

const (
	// WorkflowSuite is the registered name of the suite workflow, used by
	// clients that start it by name.
	WorkflowSuite = "SuiteWorkflow"

	// Task queues. Suite workflows run on QueueSuite; the activities that
	// call the pipeline engine run on QueueEngine so engine load can be
	// bounded separately.
	QueueSuite  = "ingesttest"
	QueueEngine = "ingesttest-engine"
)
