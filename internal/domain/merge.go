package domain

// ApplyUpdate returns a copy of it with only the supplied fields replaced.
// ID, CreatedAt, ClickCount and Seq always come from it.
func ApplyUpdate(it RoutineItem, u UpdateInput) RoutineItem {
	out := it.Clone()
	if u.Name != nil {
		out.Name = *u.Name
	}
	if u.URL != nil {
		out.URL = *u.URL
	}
	if u.Description.Set {
		if u.Description.Value == nil {
			out.Description = nil
		} else {
			d := *u.Description.Value
			out.Description = &d
		}
	}
	if u.Order != nil {
		out.Order = *u.Order
	}
	return out
}
