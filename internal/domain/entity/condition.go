package entity

// Search operators used against the ERP. Only the two the client needs.
const (
	OpEq    = "="
	OpILike = "ilike"
)

// Condition is one (field, operator, value) triple of a search domain.
type Condition struct {
	Field string
	Op    string
	Value any
}

// Eq builds an exact-match condition.
func Eq(field string, value any) Condition {
	return Condition{Field: field, Op: OpEq, Value: value}
}

// ILike builds a case-insensitive partial-match condition.
func ILike(field string, value any) Condition {
	return Condition{Field: field, Op: OpILike, Value: value}
}

// Tuple returns the wire shape of the condition.
func (c Condition) Tuple() []any {
	return []any{c.Field, c.Op, c.Value}
}

// Domain returns the wire shape of a whole condition list.
func Domain(conds []Condition) []any {
	out := make([]any, 0, len(conds))
	for _, c := range conds {
		out = append(out, c.Tuple())
	}
	return out
}
