package schema

// Table describes one live table the restore engine touches: its physical
// name, primary key columns (ordered, used for upsert conflict targets) and
// the foreign keys it holds toward parent tables.
type Table struct {
	Name       string
	PKColumns  []string
	References []Ref
}

// Ref is one foreign-key edge: Column in the owning table points at the
// primary key of Parent.
type Ref struct {
	Column string
	Parent string
}

const (
	// AdminUsersTable carries a foreign key into the external identity
	// provider; that column is nulled during restore because provider users
	// are outside the snapshot's scope.
	AdminUsersTable        = "admin_users"
	ExternalIdentityColumn = "auth_user_id"
)

// Catalog returns the full set of tables covered by backup and restore.
// The catalog is closed: schema changes require updating this list and both
// orders below, and the tests in this package hold them consistent.
func Catalog() []Table {
	return []Table{
		{Name: "branches", PKColumns: []string{"id"}},
		{Name: "grade_levels", PKColumns: []string{"id"}},
		{Name: "parents", PKColumns: []string{"id"}},
		{Name: "settings", PKColumns: []string{"key"}},
		{Name: "rooms", PKColumns: []string{"id"}, References: []Ref{{"branch_id", "branches"}}},
		{Name: "teachers", PKColumns: []string{"id"}, References: []Ref{{"branch_id", "branches"}}},
		{Name: "courses", PKColumns: []string{"id"}, References: []Ref{{"grade_level_id", "grade_levels"}}},
		{Name: "students", PKColumns: []string{"id"}, References: []Ref{{"branch_id", "branches"}, {"grade_level_id", "grade_levels"}}},
		{Name: AdminUsersTable, PKColumns: []string{"id"}, References: []Ref{{"branch_id", "branches"}}},
		{Name: "student_parents", PKColumns: []string{"student_id", "parent_id"}, References: []Ref{{"student_id", "students"}, {"parent_id", "parents"}}},
		{Name: "classes", PKColumns: []string{"id"}, References: []Ref{{"course_id", "courses"}, {"room_id", "rooms"}, {"branch_id", "branches"}}},
		{Name: "class_teachers", PKColumns: []string{"class_id", "teacher_id"}, References: []Ref{{"class_id", "classes"}, {"teacher_id", "teachers"}}},
		{Name: "class_schedules", PKColumns: []string{"id"}, References: []Ref{{"class_id", "classes"}}},
		{Name: "enrollments", PKColumns: []string{"id"}, References: []Ref{{"student_id", "students"}, {"class_id", "classes"}}},
		{Name: "lessons", PKColumns: []string{"id"}, References: []Ref{{"class_id", "classes"}, {"room_id", "rooms"}}},
		{Name: "trial_bookings", PKColumns: []string{"id"}, References: []Ref{{"class_id", "classes"}, {"branch_id", "branches"}}},
		{Name: "waitlists", PKColumns: []string{"id"}, References: []Ref{{"student_id", "students"}, {"class_id", "classes"}}},
		{Name: "attendance", PKColumns: []string{"id"}, References: []Ref{{"lesson_id", "lessons"}, {"student_id", "students"}}},
		{Name: "makeup_classes", PKColumns: []string{"id"}, References: []Ref{{"student_id", "students"}, {"lesson_id", "lessons"}}},
		{Name: "events", PKColumns: []string{"id"}, References: []Ref{{"branch_id", "branches"}}},
		{Name: "event_registrations", PKColumns: []string{"id"}, References: []Ref{{"event_id", "events"}, {"student_id", "students"}}},
		{Name: "notifications", PKColumns: []string{"id"}, References: []Ref{{"branch_id", "branches"}}},
		{Name: "notification_reads", PKColumns: []string{"notification_id", "parent_id"}, References: []Ref{{"notification_id", "notifications"}, {"parent_id", "parents"}}},
		{Name: "line_accounts", PKColumns: []string{"id"}, References: []Ref{{"parent_id", "parents"}}},
		{Name: "line_message_logs", PKColumns: []string{"id"}, References: []Ref{{"line_account_id", "line_accounts"}, {"notification_id", "notifications"}}},
		{Name: "invoices", PKColumns: []string{"id"}, References: []Ref{{"student_id", "students"}}},
		{Name: "invoice_items", PKColumns: []string{"id"}, References: []Ref{{"invoice_id", "invoices"}}},
		{Name: "payments", PKColumns: []string{"id"}, References: []Ref{{"invoice_id", "invoices"}}},
	}
}

// ByName returns a lookup map over the catalog.
func ByName() map[string]Table {
	m := make(map[string]Table)
	for _, t := range Catalog() {
		m[t.Name] = t
	}
	return m
}

// TableNames returns every catalog table name in declaration order.
func TableNames() []string {
	cat := Catalog()
	out := make([]string, 0, len(cat))
	for _, t := range cat {
		out = append(out, t.Name)
	}
	return out
}
