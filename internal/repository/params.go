// internal/repository/params.go
package repository

import (
	"fmt"
	"regexp"
	"strings"
)

// Direction tells whether a stored-procedure parameter is sent, received, or both.
type Direction int

const (
	DirectionIn Direction = iota
	DirectionOut
	DirectionInOut
)

func (d Direction) String() string {
	switch d {
	case DirectionOut:
		return "out"
	case DirectionInOut:
		return "inout"
	default:
		return "in"
	}
}

// Param is one named argument of a stored-procedure call.
type Param struct {
	Name      string
	Value     any
	Direction Direction
}

// In declares an input parameter.
func In(name string, value any) Param {
	return Param{Name: name, Value: value, Direction: DirectionIn}
}

// Out declares an output parameter. Its value is reported in Result.Outputs.
func Out(name string) Param {
	return Param{Name: name, Direction: DirectionOut}
}

// InOut declares a parameter that is both sent and reported back.
func InOut(name string, value any) Param {
	return Param{Name: name, Value: value, Direction: DirectionInOut}
}

// Params is the ordered parameter list of a call.
type Params []Param

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// validIdentifier accepts plain or schema-qualified names.
func validIdentifier(name string) bool {
	parts := strings.Split(name, ".")
	if len(parts) > 2 {
		return false
	}
	for _, p := range parts {
		if !identifierPattern.MatchString(p) {
			return false
		}
	}
	return true
}

// arguments renders the argument list using named notation and returns the bind values.
// Output-only parameters are rendered as NULL placeholders, which PostgreSQL requires
// for OUT arguments of a procedure invoked with CALL. When withOutputs is false they are
// left out entirely, as functions do not accept OUT arguments.
func (p Params) arguments(withOutputs bool) (string, []any, error) {
	var (
		parts []string
		args  []any
	)
	for _, param := range p {
		if param.Name != "" && !validIdentifier(param.Name) {
			return "", nil, fmt.Errorf("invalid parameter name %q", param.Name)
		}
		var expr string
		switch param.Direction {
		case DirectionOut:
			if !withOutputs {
				continue
			}
			expr = "NULL"
		default:
			args = append(args, param.Value)
			expr = fmt.Sprintf("$%d", len(args))
		}
		if param.Name != "" {
			expr = param.Name + " => " + expr
		}
		parts = append(parts, expr)
	}
	return strings.Join(parts, ", "), args, nil
}

// outputs picks the values of Out and InOut parameters from a returned row.
func (p Params) outputs(row map[string]any) map[string]any {
	out := make(map[string]any)
	for _, param := range p {
		if param.Direction == DirectionIn {
			continue
		}
		if v, ok := row[param.Name]; ok {
			out[param.Name] = v
		}
	}
	return out
}
