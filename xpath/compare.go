package xpath

// compareValues implements XPath 1.0 section 3.4's equality/relational comparison rules,
// including the node-set existential-quantification case ("true if there is a node in the
// node-set such that the comparison is true for that node's string-value").
func compareValues(l, r Value, op string) bool {
	ln, lok := l.(NodeSet)
	rn, rok := r.(NodeSet)
	if lok && rok {
		for _, a := range ln {
			for _, b := range rn {
				if compareScalars(String(stringValueOf(a)), String(stringValueOf(b)), op) {
					return true
				}
			}
		}
		return false
	}
	if lok {
		return compareNodeSetAndOther(ln, r, op, false)
	}
	if rok {
		return compareNodeSetAndOther(rn, l, op, true)
	}
	return compareScalars(l, r, op)
}

// compareNodeSetAndOther compares every member of ns (as a string) against other; flipped
// indicates other was the left-hand operand, so the comparison operator must be mirrored
// for non-symmetric operators (<, <=, >, >=). A boolean other is compared against the
// node-set's own boolean value (non-empty) rather than against each member.
func compareNodeSetAndOther(ns NodeSet, other Value, op string, flipped bool) bool {
	if o, ok := other.(Boolean); ok {
		return compareScalars(Boolean(len(ns) > 0), o, pick(op, flipped))
	}
	for _, n := range ns {
		s := String(stringValueOf(n))
		var a, b Value = s, other
		if flipped {
			a, b = other, s
		}
		switch o := other.(type) {
		case Number:
			if compareScalars(Number(stringToNumber(string(s))), o, pick(op, flipped)) {
				return true
			}
			continue
		}
		if compareScalars(a, b, op) {
			return true
		}
	}
	return false
}

func pick(op string, flipped bool) string {
	if !flipped {
		return op
	}
	switch op {
	case "<":
		return ">"
	case "<=":
		return ">="
	case ">":
		return "<"
	case ">=":
		return "<="
	}
	return op
}

func compareScalars(l, r Value, op string) bool {
	switch op {
	case "=":
		return scalarEqual(l, r)
	case "!=":
		return !scalarEqual(l, r)
	}
	lf, rf := float64(ToNumber(l)), float64(ToNumber(r))
	switch op {
	case "<":
		return lf < rf
	case "<=":
		return lf <= rf
	case ">":
		return lf > rf
	case ">=":
		return lf >= rf
	}
	return false
}

func scalarEqual(l, r Value) bool {
	_, lBool := l.(Boolean)
	_, rBool := r.(Boolean)
	if lBool || rBool {
		return ToBoolean(l) == ToBoolean(r)
	}
	_, lNum := l.(Number)
	_, rNum := r.(Number)
	if lNum || rNum {
		return float64(ToNumber(l)) == float64(ToNumber(r))
	}
	return string(ToString(l)) == string(ToString(r))
}
