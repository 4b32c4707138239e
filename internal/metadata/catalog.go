package metadata

// Built-in descriptors for the accelerator back-office tables. Tables not
// listed here can be added through the catalog file without code changes.

func timestamps() []Field {
	return []Field{
		{Name: "created_at", Type: "timestamp", Label: "Created", Filter: FilterRange, Sortable: true, Auto: "create"},
		{Name: "updated_at", Type: "timestamp", Label: "Updated", Sortable: true, Auto: "update"},
	}
}

func withTimestamps(fields ...Field) []Field {
	return append(fields, timestamps()...)
}

var reviewActions = map[string]Action{
	"approve": {Label: "Approve", To: "approved", From: TransitionFrom{"draft", "pending"}, Stamp: "reviewed_at"},
	"reject":  {Label: "Reject", To: "rejected", From: TransitionFrom{"draft", "pending"}, Stamp: "reviewed_at"},
	"archive": {Label: "Archive", To: "archived", Guard: `record.status != "archived"`},
	"delete":  {Label: "Delete", Delete: true, Roles: []string{"super_admin"}},
}

func copyActions(src map[string]Action) map[string]Action {
	dst := make(map[string]Action, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// DefaultCatalog returns fresh copies of the built-in descriptors.
func DefaultCatalog() []*Entity {
	return []*Entity{
		{
			Name:       "users",
			Table:      "users",
			Label:      "Users",
			PrimaryKey: PrimaryKey{Field: "id", Type: "uuid", Generated: true},
			Fields: withTimestamps(
				Field{Name: "id", Type: "uuid"},
				Field{Name: "email", Type: "string", Label: "Email", Required: true, Filter: FilterContains, Sortable: true},
				Field{Name: "full_name", Type: "string", Label: "Name", Filter: FilterContains, Sortable: true},
				Field{Name: "role", Type: "string", Label: "Role", Required: true, Filter: FilterEquals},
				Field{Name: "tenant_id", Type: "uuid", Label: "Tenant", Filter: FilterEquals},
				Field{Name: "status", Type: "string", Label: "Status", Filter: FilterEquals},
				Field{Name: "email_verified", Type: "boolean", Label: "Verified", Filter: FilterBoolean},
				Field{Name: "last_login_at", Type: "timestamp", Label: "Last login", Filter: FilterRange, Sortable: true},
			),
			Search:      []string{"email", "full_name"},
			Columns:     []string{"email", "full_name", "role", "status", "last_login_at"},
			DefaultSort: SortSpec{Field: "created_at", Desc: true},
			StateField:  "status",
			Actions: map[string]Action{
				"activate":   {Label: "Activate", To: "active"},
				"suspend":    {Label: "Suspend", To: "suspended", Guard: `record.role != "super_admin"`},
				"deactivate": {Label: "Deactivate", To: "inactive"},
			},
		},
		{
			Name:       "ideas",
			Table:      "ideas",
			Label:      "Ideas",
			PrimaryKey: PrimaryKey{Field: "id", Type: "int", Generated: true},
			Fields: withTimestamps(
				Field{Name: "id", Type: "int"},
				Field{Name: "title", Type: "string", Label: "Title", Required: true, Filter: FilterContains, Sortable: true},
				Field{Name: "description", Type: "text", Label: "Description"},
				Field{Name: "status", Type: "string", Label: "Status", Filter: FilterEquals},
				Field{Name: "category", Type: "string", Label: "Category", Filter: FilterEquals},
				Field{Name: "owner_id", Type: "uuid", Label: "Owner", Filter: FilterEquals},
				Field{Name: "tenant_id", Type: "uuid", Label: "Tenant", Filter: FilterEquals},
				Field{Name: "is_featured", Type: "boolean", Label: "Featured", Filter: FilterBoolean},
				Field{Name: "vote_count", Type: "int", Label: "Votes", Filter: FilterRange, Sortable: true},
				Field{Name: "reviewed_at", Type: "timestamp", Label: "Reviewed"},
			),
			Search:      []string{"title", "description"},
			Columns:     []string{"title", "category", "status", "vote_count", "created_at"},
			DefaultSort: SortSpec{Field: "created_at", Desc: true},
			StateField:  "status",
			Actions:     copyActions(reviewActions),
		},
		{
			Name:       "projects",
			Table:      "projects",
			Label:      "Projects",
			PrimaryKey: PrimaryKey{Field: "id", Type: "int", Generated: true},
			Fields: withTimestamps(
				Field{Name: "id", Type: "int"},
				Field{Name: "name", Type: "string", Label: "Name", Required: true, Filter: FilterContains, Sortable: true},
				Field{Name: "summary", Type: "text", Label: "Summary"},
				Field{Name: "idea_id", Type: "int", Label: "Idea", Filter: FilterEquals},
				Field{Name: "tenant_id", Type: "uuid", Label: "Tenant", Filter: FilterEquals},
				Field{Name: "stage", Type: "string", Label: "Stage", Filter: FilterEquals, Sortable: true},
				Field{Name: "status", Type: "string", Label: "Status", Filter: FilterEquals},
				Field{Name: "budget", Type: "decimal", Label: "Budget", Filter: FilterRange, Sortable: true},
				Field{Name: "reviewed_at", Type: "timestamp", Label: "Reviewed"},
			),
			Search:      []string{"name", "summary"},
			Columns:     []string{"name", "stage", "status", "budget", "created_at"},
			DefaultSort: SortSpec{Field: "created_at", Desc: true},
			StateField:  "status",
			Actions:     copyActions(reviewActions),
		},
		{
			Name:       "invoices",
			Table:      "invoices",
			Label:      "Invoices",
			PrimaryKey: PrimaryKey{Field: "id", Type: "uuid", Generated: true},
			Fields: withTimestamps(
				Field{Name: "id", Type: "uuid"},
				Field{Name: "number", Type: "string", Label: "Number", Required: true, Filter: FilterContains, Sortable: true},
				Field{Name: "tenant_id", Type: "uuid", Label: "Tenant", Filter: FilterEquals},
				Field{Name: "amount", Type: "decimal", Label: "Amount", Required: true, Filter: FilterRange, Sortable: true},
				Field{Name: "currency", Type: "string", Label: "Currency", Filter: FilterEquals},
				Field{Name: "status", Type: "string", Label: "Status", Filter: FilterEquals},
				Field{Name: "due_date", Type: "date", Label: "Due", Filter: FilterRange, Sortable: true},
				Field{Name: "paid_at", Type: "timestamp", Label: "Paid"},
				Field{Name: "voided_at", Type: "timestamp", Label: "Voided"},
			),
			Search:      []string{"number"},
			Columns:     []string{"number", "amount", "currency", "status", "due_date"},
			DefaultSort: SortSpec{Field: "due_date", Desc: true},
			StateField:  "status",
			Actions: map[string]Action{
				"mark_paid": {Label: "Mark paid", To: "paid", From: TransitionFrom{"open", "overdue"}, Stamp: "paid_at"},
				"void":      {Label: "Void", To: "void", From: TransitionFrom{"draft", "open", "overdue"}, Stamp: "voided_at"},
			},
		},
		{
			Name:       "subscriptions",
			Table:      "subscriptions",
			Label:      "Subscriptions",
			PrimaryKey: PrimaryKey{Field: "id", Type: "uuid", Generated: true},
			Fields: withTimestamps(
				Field{Name: "id", Type: "uuid"},
				Field{Name: "tenant_id", Type: "uuid", Label: "Tenant", Required: true, Filter: FilterEquals},
				Field{Name: "plan", Type: "string", Label: "Plan", Required: true, Filter: FilterEquals, Sortable: true},
				Field{Name: "status", Type: "string", Label: "Status", Filter: FilterEquals},
				Field{Name: "auto_renew", Type: "boolean", Label: "Auto renew", Filter: FilterBoolean},
				Field{Name: "renews_at", Type: "date", Label: "Renews", Filter: FilterRange, Sortable: true},
				Field{Name: "cancelled_at", Type: "timestamp", Label: "Cancelled"},
			),
			Columns:     []string{"plan", "status", "auto_renew", "renews_at"},
			DefaultSort: SortSpec{Field: "renews_at"},
			StateField:  "status",
			Actions: map[string]Action{
				"cancel": {Label: "Cancel", To: "cancelled", From: TransitionFrom{"active", "trialing", "past_due"}, Stamp: "cancelled_at"},
				"resume": {Label: "Resume", To: "active", From: TransitionFrom{"paused"}},
				"pause":  {Label: "Pause", To: "paused", From: TransitionFrom{"active"}},
			},
		},
		{
			Name:       "courses",
			Table:      "courses",
			Label:      "Courses",
			PrimaryKey: PrimaryKey{Field: "id", Type: "int", Generated: true},
			Fields: withTimestamps(
				Field{Name: "id", Type: "int"},
				Field{Name: "title", Type: "string", Label: "Title", Required: true, Filter: FilterContains, Sortable: true},
				Field{Name: "description", Type: "text", Label: "Description"},
				Field{Name: "level", Type: "string", Label: "Level", Filter: FilterEquals},
				Field{Name: "status", Type: "string", Label: "Status", Filter: FilterEquals},
				Field{Name: "is_free", Type: "boolean", Label: "Free", Filter: FilterBoolean},
				Field{Name: "published_at", Type: "timestamp", Label: "Published", Sortable: true},
			),
			Search:      []string{"title", "description"},
			Columns:     []string{"title", "level", "status", "is_free", "published_at"},
			DefaultSort: SortSpec{Field: "title"},
			StateField:  "status",
			Actions: map[string]Action{
				"publish":   {Label: "Publish", To: "published", From: TransitionFrom{"draft"}, Stamp: "published_at"},
				"unpublish": {Label: "Unpublish", To: "draft", From: TransitionFrom{"published"}},
				"archive":   {Label: "Archive", To: "archived"},
			},
		},
		{
			Name:       "lessons",
			Table:      "lessons",
			Label:      "Lessons",
			PrimaryKey: PrimaryKey{Field: "id", Type: "int", Generated: true},
			Fields: withTimestamps(
				Field{Name: "id", Type: "int"},
				Field{Name: "course_id", Type: "int", Label: "Course", Required: true, Filter: FilterEquals},
				Field{Name: "title", Type: "string", Label: "Title", Required: true, Filter: FilterContains, Sortable: true},
				Field{Name: "position", Type: "int", Label: "Position", Sortable: true},
				Field{Name: "status", Type: "string", Label: "Status", Filter: FilterEquals},
				Field{Name: "duration_minutes", Type: "int", Label: "Minutes", Filter: FilterRange},
			),
			Search:      []string{"title"},
			Columns:     []string{"position", "title", "status", "duration_minutes"},
			DefaultSort: SortSpec{Field: "position"},
			StateField:  "status",
			Actions: map[string]Action{
				"publish": {Label: "Publish", To: "published"},
				"hide":    {Label: "Hide", To: "hidden"},
				"delete":  {Label: "Delete", Delete: true, Roles: []string{"super_admin"}},
			},
		},
		{
			Name:       "notifications",
			Table:      "notifications",
			Label:      "Notifications",
			PrimaryKey: PrimaryKey{Field: "id", Type: "int", Generated: true},
			Fields: withTimestamps(
				Field{Name: "id", Type: "int"},
				Field{Name: "user_id", Type: "uuid", Label: "User", Filter: FilterEquals},
				Field{Name: "channel", Type: "string", Label: "Channel", Filter: FilterEquals},
				Field{Name: "title", Type: "string", Label: "Title", Required: true, Filter: FilterContains},
				Field{Name: "body", Type: "text", Label: "Body"},
				Field{Name: "is_read", Type: "boolean", Label: "Read", Filter: FilterBoolean},
				Field{Name: "status", Type: "string", Label: "Status", Filter: FilterEquals},
			),
			Search:       []string{"title", "body"},
			Columns:      []string{"title", "channel", "status", "is_read", "created_at"},
			DefaultSort:  SortSpec{Field: "created_at", Desc: true},
			StateField:   "status",
			DefaultLimit: 25,
			Actions: map[string]Action{
				"mark_read": {Label: "Mark read", Field: "is_read", To: "true"},
				"archive":   {Label: "Archive", To: "archived"},
				"delete":    {Label: "Delete", Delete: true, Roles: []string{"super_admin"}},
			},
		},
		{
			Name:       "activity_logs",
			Table:      "activity_logs",
			Label:      "Activity log",
			PrimaryKey: PrimaryKey{Field: "id", Type: "bigint", Generated: true},
			Fields: []Field{
				{Name: "id", Type: "bigint"},
				{Name: "actor_id", Type: "uuid", Label: "Actor", Filter: FilterEquals},
				{Name: "tenant_id", Type: "uuid", Label: "Tenant", Filter: FilterEquals},
				{Name: "action", Type: "string", Label: "Action", Filter: FilterEquals},
				{Name: "entity_type", Type: "string", Label: "Entity", Filter: FilterEquals},
				{Name: "entity_id", Type: "string", Label: "Record", Filter: FilterEquals},
				{Name: "details", Type: "text", Label: "Details"},
				{Name: "created_at", Type: "timestamp", Label: "At", Filter: FilterRange, Sortable: true, Auto: "create"},
			},
			Search:       []string{"details"},
			Columns:      []string{"created_at", "action", "entity_type", "entity_id"},
			DefaultSort:  SortSpec{Field: "created_at", Desc: true},
			DefaultLimit: 50,
		},
		{
			Name:       "comments",
			Table:      "comments",
			Label:      "Comments",
			PrimaryKey: PrimaryKey{Field: "id", Type: "int", Generated: true},
			Fields: withTimestamps(
				Field{Name: "id", Type: "int"},
				Field{Name: "idea_id", Type: "int", Label: "Idea", Filter: FilterEquals},
				Field{Name: "author_id", Type: "uuid", Label: "Author", Filter: FilterEquals},
				Field{Name: "body", Type: "text", Label: "Comment", Required: true},
				Field{Name: "status", Type: "string", Label: "Status", Filter: FilterEquals},
				Field{Name: "is_flagged", Type: "boolean", Label: "Flagged", Filter: FilterBoolean},
			),
			Search:      []string{"body"},
			Columns:     []string{"body", "status", "is_flagged", "created_at"},
			DefaultSort: SortSpec{Field: "created_at", Desc: true},
			StateField:  "status",
			Actions: map[string]Action{
				"approve": {Label: "Approve", To: "visible"},
				"hide":    {Label: "Hide", To: "hidden"},
				"delete":  {Label: "Delete", Delete: true, Roles: []string{"super_admin"}},
			},
		},
	}
}
