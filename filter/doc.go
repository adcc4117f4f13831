// Package filter narrows and reshapes decoded response data.
//
// Record filters are expr-lang expressions evaluated against each record of
// a list. Map records expose their keys as variables:
//
//	username == "admin"
//	id > 1 and label startsWith "my"
//	hasField("email") and icontains(email, "@example.com")
//	daysSince(create_date) < 7
//
// Queries are JMESPath expressions applied to a whole response:
//
//	objects[].label
//	objects[?id > `1`] | length(@)
//
// # Usage
//
//	m := filter.NewManager()
//	if err := m.RegisterFilters(cfg.Filters); err != nil {
//		return err
//	}
//	f, err := m.Resolve(where)
//	if err != nil {
//		return err
//	}
//	data, err := filter.ApplyToData(ctx, f, resp.Data, filter.ListKey)
package filter
