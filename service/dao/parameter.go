package dao

// Parameter names understood by request store List implementations.
const (
	ParamStatus = "Status"
	ParamTarget = "Target"
	ParamLimit  = "Limit"
)

// Parameter is a named List filter.
type Parameter struct {
	Name  string
	Value interface{}
}

// NewParameter creates a parameter; more than one value is stored as []string.
func NewParameter(name string, values ...string) *Parameter {
	if len(values) == 1 {
		return &Parameter{Name: name, Value: values[0]}
	}
	return &Parameter{Name: name, Value: values}
}
