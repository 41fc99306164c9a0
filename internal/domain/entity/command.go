package entity

// Odoo encodes writes to relational fields as command tuples. The only
// command this client emits or inspects is (6, 0, ids): replace the
// whole relation with ids.
const cmdReplace = 6

// SetIDs builds a relational replace command list, the shape callers
// put in invoice_line_tax_id.
func SetIDs(ids ...int64) []any {
	wire := make([]any, 0, len(ids))
	for _, id := range ids {
		wire = append(wire, id)
	}
	return []any{[]any{int64(cmdReplace), int64(0), wire}}
}

// CommandIDs decodes a relational command list back into ids. ok is
// false unless the value holds exactly one replace command; anything
// else is not something the reconciliation engine can reason about.
func CommandIDs(v any) (ids []int64, ok bool) {
	cmds, isList := v.([]any)
	if !isList || len(cmds) != 1 {
		return nil, false
	}
	cmd, isTuple := cmds[0].([]any)
	if !isTuple || len(cmd) != 3 {
		return nil, false
	}
	kind, isID := AsID(cmd[0])
	if !isID || kind != cmdReplace {
		return nil, false
	}
	ids = AsIDs(cmd[2])
	if ids == nil {
		return nil, false
	}
	return ids, true
}
