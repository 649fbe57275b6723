package logging

// Standardized attribute keys. Commands and collaborators share these so
// log lines stay greppable across the run.
const (
	FieldComponent = "component"
	FieldTitle     = "title"
	FieldWorkers   = "workers"
	FieldQueryKey  = "query_key"
	FieldFormat    = "format"
)
