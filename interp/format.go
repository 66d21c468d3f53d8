package interp

import (
	"fmt"
	"math"
	"strings"
)

// formatValue renders v with printf-style flags, as in "${n:.2f}". The last
// character of flags is the verb. Integral numbers satisfy integer verbs;
// string verbs receive the string form of v.
func formatValue(v Value, flags string) (Value, error) {
	if flags == "" {
		return String(v.String()), nil
	}

	verb := flags[len(flags)-1]
	if strings.ContainsRune("%*", rune(verb)) || strings.Contains(flags[:len(flags)-1], "*") {
		return nil, Errorf("invalid format %q", flags)
	}

	var arg any

	switch verb {
	case 's', 'q', 'v':
		arg = v.String()

	case 't':
		arg = Truthy(v)

	case 'd', 'x', 'X', 'o', 'b', 'c':
		f, ok := ToNumber(v)
		if !ok {
			if verb == 'x' || verb == 'X' {
				arg = v.String()

				break
			}

			return nil, Errorf("cannot format a %s value with %%%c", KindOf(v), verb)
		}

		if f != math.Trunc(f) {
			return nil, Errorf("cannot format %s with %%%c", v, verb)
		}

		arg = int64(f)

	case 'e', 'E', 'f', 'F', 'g', 'G':
		f, ok := ToNumber(v)
		if !ok {
			return nil, Errorf("cannot format a %s value with %%%c", KindOf(v), verb)
		}

		arg = f

	default:
		return nil, Errorf("invalid format verb %q", verb)
	}

	return String(fmt.Sprintf("%"+flags, arg)), nil
}
