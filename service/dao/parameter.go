package dao

// Parameter represents a named list filter, i.e. MissionID=m1 or Status=[pending,editing]
type Parameter struct {
	Name  string
	Value interface{}
}

// NewParameter creates a parameter, multiple values are matched as alternatives
func NewParameter(name string, values ...string) *Parameter {
	if len(values) == 1 {
		return &Parameter{Name: name, Value: values[0]}
	}
	return &Parameter{Name: name, Value: values}
}

// LookupParameter returns first parameter with supplied name
func LookupParameter(name string, parameters []*Parameter) *Parameter {
	for _, parameter := range parameters {
		if parameter != nil && parameter.Name == name {
			return parameter
		}
	}
	return nil
}
