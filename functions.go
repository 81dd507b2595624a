package codd

// A Function is a built-in callable available in extend computations.
type Function func(args []Value) (Value, error)

var functions = map[string]Function{
	"round": fnRound,
}

// RegisterFunction makes fn callable by name in computations.
func RegisterFunction(name string, fn Function) {
	functions[name] = fn
}

func callFunction(name string, args []Value) (Value, error) {
	fn, ok := functions[name]
	if !ok {
		return Value{}, nameErrorf("unknown function %q", name)
	}
	return fn(args)
}

// fnRound rounds to n fractional digits. Decimal inputs stay decimal.
func fnRound(args []Value) (Value, error) {
	if len(args) != 2 {
		return Value{}, typeErrorf("round expects 2 arguments, got %d", len(args))
	}
	x, n := args[0], args[1]
	if n.Type != Int {
		return Value{}, typeErrorf("round: the digit count must be an integer")
	}
	switch x.Type {
	case Int:
		return x, nil
	case Decimal:
		return DecimalValue(x.asDecimal().Round(int32(n.Data.(int64)))), nil
	default:
		return Value{}, typeErrorf("round: expected a number, got %s", getValueTypeName(x.Type))
	}
}
