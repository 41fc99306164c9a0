package entity

// FieldMap carries the fields of one remote record, either supplied by
// the caller (invoice header, lines, attachment) or read back from the
// ERP. Values keep whatever shape the transport decoded them into:
// XML-RPC yields int64, JSON-RPC yields float64, relations come back as
// [id, display_name] pairs and unset fields as false.
type FieldMap map[string]any

// Clone returns a shallow copy, used before injecting foreign keys so
// the caller's maps are never mutated.
func (m FieldMap) Clone() FieldMap {
	out := make(FieldMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// RecordRef is a snapshot of a remote record. The record itself is
// owned by the ERP; the ref only holds the identifier and the fields as
// they were at read time. Mutations go through an explicit Gateway
// write, never through the snapshot.
type RecordRef struct {
	Model  string
	ID     int64
	Fields FieldMap
}

// Str returns the named field as a string. Unset Odoo fields arrive as
// false and yield "".
func (r *RecordRef) Str(key string) string {
	s, _ := r.Fields[key].(string)
	return s
}

// Float returns the named field as a float64, accepting any numeric
// shape the transport produced.
func (r *RecordRef) Float(key string) float64 {
	f, _ := AsFloat(r.Fields[key])
	return f
}

// Many2One decodes a many2one field, which the ERP serializes as an
// [id, display_name] pair (or false when unset).
func (r *RecordRef) Many2One(key string) (id int64, name string, ok bool) {
	pair, isPair := r.Fields[key].([]any)
	if !isPair || len(pair) == 0 {
		return 0, "", false
	}
	id, ok = AsID(pair[0])
	if !ok {
		return 0, "", false
	}
	if len(pair) > 1 {
		name, _ = pair[1].(string)
	}
	return id, name, true
}

// RelIDs decodes a one2many/many2many field, serialized as a plain list
// of ids on read.
func (r *RecordRef) RelIDs(key string) []int64 {
	return AsIDs(r.Fields[key])
}

// AsID coerces a transport-decoded value to a record id.
func AsID(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case float64:
		return int64(n), true
	case float32:
		return int64(n), true
	}
	return 0, false
}

// AsIDs coerces a transport-decoded list to record ids. Non-list values
// (false for an empty relation) yield nil.
func AsIDs(v any) []int64 {
	switch list := v.(type) {
	case []int64:
		return list
	case []any:
		out := make([]int64, 0, len(list))
		for _, item := range list {
			id, ok := AsID(item)
			if !ok {
				return nil
			}
			out = append(out, id)
		}
		return out
	}
	return nil
}

// AsFloat coerces a transport-decoded value to a float64.
func AsFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	}
	return 0, false
}
