package schema

import "fmt"

// DeleteOrder lists every catalog table, children before the parents they
// reference, so deleting front-to-back never strands a foreign key.
//
// Hand-curated alongside InsertOrder; the two are maintained independently
// and are deliberately not each other's reverse. Both are validated against
// the catalog's declared references by the tests in this package.
var DeleteOrder = []string{
	"payments",
	"invoice_items",
	"invoices",
	"line_message_logs",
	"notification_reads",
	"line_accounts",
	"event_registrations",
	"attendance",
	"makeup_classes",
	"waitlists",
	"enrollments",
	"trial_bookings",
	"lessons",
	"class_schedules",
	"class_teachers",
	"events",
	"notifications",
	"student_parents",
	"classes",
	"admin_users",
	"students",
	"courses",
	"teachers",
	"rooms",
	"settings",
	"parents",
	"grade_levels",
	"branches",
}

// InsertOrder lists every catalog table, parents before the children that
// reference them, so inserting front-to-back always finds referenced rows
// in place.
var InsertOrder = []string{
	"branches",
	"grade_levels",
	"parents",
	"settings",
	"rooms",
	"teachers",
	"courses",
	"students",
	"admin_users",
	"student_parents",
	"classes",
	"class_teachers",
	"class_schedules",
	"enrollments",
	"lessons",
	"trial_bookings",
	"waitlists",
	"attendance",
	"makeup_classes",
	"events",
	"event_registrations",
	"notifications",
	"notification_reads",
	"line_accounts",
	"line_message_logs",
	"invoices",
	"invoice_items",
	"payments",
}

// CheckOrders verifies that both orders cover the catalog exactly once and
// respect every declared foreign-key edge. It is cheap enough to run at
// startup as a guard against a half-updated catalog.
func CheckOrders() error {
	if err := coversCatalog(DeleteOrder); err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if err := coversCatalog(InsertOrder); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	pos := make(map[string]int, len(InsertOrder))
	for i, n := range InsertOrder {
		pos[n] = i
	}
	for _, t := range Catalog() {
		for _, r := range t.References {
			if pos[r.Parent] > pos[t.Name] {
				return fmt.Errorf("insert order: %s references %s but is inserted first", t.Name, r.Parent)
			}
		}
	}
	dpos := make(map[string]int, len(DeleteOrder))
	for i, n := range DeleteOrder {
		dpos[n] = i
	}
	for _, t := range Catalog() {
		for _, r := range t.References {
			if dpos[t.Name] > dpos[r.Parent] {
				return fmt.Errorf("delete order: %s is deleted after its parent %s", t.Name, r.Parent)
			}
		}
	}
	return nil
}

func coversCatalog(order []string) error {
	seen := make(map[string]bool, len(order))
	for _, n := range order {
		if seen[n] {
			return fmt.Errorf("duplicate table %s", n)
		}
		seen[n] = true
	}
	for _, t := range Catalog() {
		if !seen[t.Name] {
			return fmt.Errorf("missing table %s", t.Name)
		}
	}
	if len(order) != len(Catalog()) {
		return fmt.Errorf("order has %d entries, catalog has %d", len(order), len(Catalog()))
	}
	return nil
}
