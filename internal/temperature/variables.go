package temperature

import (
	"fmt"
	"strings"
)

// VariableAliases are the names under which 2 m air temperature is
// published, in resolution order.
var VariableAliases = []string{"t2m", "2t", "temperature_2m"}

// VariableNotFoundError reports a grid carrying none of the aliases.
type VariableNotFoundError struct {
	Path      string
	Available []string
}

func (e *VariableNotFoundError) Error() string {
	where := ""
	if e.Path != "" {
		where = " in " + e.Path
	}
	return fmt.Sprintf("no temperature variable (%s)%s; available: [%s]",
		strings.Join(VariableAliases, ", "), where, strings.Join(e.Available, ", "))
}

// ResolveVariable returns the first alias present in declared.
func ResolveVariable(declared []string) (string, error) {
	set := make(map[string]struct{}, len(declared))
	for _, name := range declared {
		set[name] = struct{}{}
	}
	for _, alias := range VariableAliases {
		if _, ok := set[alias]; ok {
			return alias, nil
		}
	}
	return "", &VariableNotFoundError{Available: declared}
}
