package store

import (
	"fmt"
	"strings"
)

// Column describes one column of a catalog relation.
type Column struct {
	Name          string
	Type          string // TEXT | INTEGER | REAL
	NotNull       bool
	PrimaryKey    bool
	AutoIncrement bool
}

// ForeignKey is a declarative reference. Foreign keys are not enforced
// (PRAGMA foreign_keys = OFF), so they never cascade or block deletes.
type ForeignKey struct {
	Column    string
	RefTable  string
	RefColumn string
}

// Index is created on every open with CREATE INDEX IF NOT EXISTS,
// so stores whose relation predates the index gain it too.
type Index struct {
	Name    string
	Columns []string
	Unique  bool
}

// Relation is a named table in a Catalog.
type Relation struct {
	Name        string
	Columns     []Column
	ForeignKeys []ForeignKey
	Indexes     []Index
}

// DDL renders the idempotent CREATE TABLE statement for the relation.
func (r Relation) DDL() string {
	lines := make([]string, 0, len(r.Columns)+len(r.ForeignKeys))
	for _, c := range r.Columns {
		def := "\t" + c.Name + " " + c.Type
		if c.PrimaryKey {
			def += " PRIMARY KEY"
		}
		if c.AutoIncrement {
			def += " AUTOINCREMENT"
		}
		if c.NotNull {
			def += " NOT NULL"
		}
		lines = append(lines, def)
	}
	for _, fk := range r.ForeignKeys {
		lines = append(lines, fmt.Sprintf("\tFOREIGN KEY (%s) REFERENCES %s(%s)", fk.Column, fk.RefTable, fk.RefColumn))
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n%s\n)", r.Name, strings.Join(lines, ",\n"))
}

// IndexDDL renders the CREATE INDEX statements for the relation.
func (r Relation) IndexDDL() []string {
	stmts := make([]string, 0, len(r.Indexes))
	for _, idx := range r.Indexes {
		kind := "INDEX"
		if idx.Unique {
			kind = "UNIQUE INDEX"
		}
		stmts = append(stmts, fmt.Sprintf("CREATE %s IF NOT EXISTS %s ON %s(%s)",
			kind, idx.Name, r.Name, strings.Join(idx.Columns, ", ")))
	}
	return stmts
}

// CollapseDDL renders the statement that deletes every row of the relation
// except the newest one per key of idx.
func (r Relation) CollapseDDL(idx Index) string {
	cols := strings.Join(idx.Columns, ", ")
	return fmt.Sprintf("DELETE FROM %s WHERE rowid NOT IN (SELECT MAX(rowid) FROM %s GROUP BY %s)",
		r.Name, r.Name, cols)
}

// Catalog is the versioned set of relations a store must contain.
type Catalog struct {
	// Name identifies the catalog in logs ("tenant", "registry").
	Name string

	// Version is stamped into PRAGMA user_version after every open.
	Version int

	Relations []Relation
}

// Relation returns the catalog relation with the given name.
func (c Catalog) Relation(name string) (Relation, bool) {
	for _, r := range c.Relations {
		if strings.EqualFold(r.Name, name) {
			return r, true
		}
	}
	return Relation{}, false
}

// Names returns the relation names in catalog order.
func (c Catalog) Names() []string {
	names := make([]string, len(c.Relations))
	for i, r := range c.Relations {
		names[i] = r.Name
	}
	return names
}

// Script renders the whole catalog as a single SQL script.
func (c Catalog) Script() string {
	var b strings.Builder
	for i, r := range c.Relations {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(r.DDL())
		b.WriteString(";\n")
		for _, stmt := range r.IndexDDL() {
			b.WriteString(stmt)
			b.WriteString(";\n")
		}
	}
	return b.String()
}

func text(name string) Column { return Column{Name: name, Type: "TEXT", NotNull: true} }
func optionalText(name string) Column { return Column{Name: name, Type: "TEXT"} }
func number(name string) Column { return Column{Name: name, Type: "REAL", NotNull: true} }
func integer(name string) Column { return Column{Name: name, Type: "INTEGER", NotNull: true} }
func textKey(name string) Column { return Column{Name: name, Type: "TEXT", PrimaryKey: true} }
func serialKey(name string) Column {
	return Column{Name: name, Type: "INTEGER", PrimaryKey: true, AutoIncrement: true}
}

func customerRef() ForeignKey {
	return ForeignKey{Column: "customer_id", RefTable: "customers", RefColumn: "customer_id"}
}

// Tenant relation names.
const (
	RelIdentification = "identification"
	RelCustomers      = "customers"
	RelOpportunities  = "opportunities"
	RelBudgets        = "budgets"
	RelProducts       = "products"
	RelProfile        = "profile"
	RelTasks          = "tasks"
	RelEvents         = "events"
	RelFAQs           = "faqs"

	RelTenants = "tenants"
)

// Catalog versions:
// 1 - identification, customers, opportunities, budgets, products, profile
// 2 - tasks, events, faqs
// 3 - unique profile per company, lookup indexes
const tenantCatalogVersion = 3

const registryCatalogVersion = 1

// TenantCatalog returns the relations every TenantStore must contain.
func TenantCatalog() Catalog {
	return Catalog{
		Name:    "tenant",
		Version: tenantCatalogVersion,
		Relations: []Relation{
			{
				Name:    RelIdentification,
				Columns: []Column{text("company_name"), text("mail"), text("secret")},
			},
			{
				Name: RelCustomers,
				Columns: []Column{
					textKey("customer_id"),
					text("name"),
					text("address"),
					text("phone"),
					text("contact_person"),
					text("email"),
				},
			},
			{
				Name: RelOpportunities,
				Columns: []Column{
					textKey("opportunity_id"),
					text("name"),
					text("customer_id"),
					text("date"),
					text("budget_id"),
					number("expected_revenue"),
					text("stage"),
				},
				ForeignKeys: []ForeignKey{customerRef()},
				Indexes: []Index{
					{Name: "idx_opportunities_customer", Columns: []string{"customer_id"}},
				},
			},
			{
				Name: RelBudgets,
				Columns: []Column{
					textKey("budget_id"),
					text("name"),
					text("customer_id"),
					text("created_on"),
					text("expires_on"),
					number("subtotal"),
					number("total"),
				},
				ForeignKeys: []ForeignKey{customerRef()},
				Indexes: []Index{
					{Name: "idx_budgets_customer", Columns: []string{"customer_id"}},
				},
			},
			{
				Name: RelProducts,
				Columns: []Column{
					serialKey("id"),
					text("supplier"),
					text("name"),
					text("description"),
					integer("tax_rate"),
					number("price"),
					integer("stock"),
				},
			},
			{
				Name: RelProfile,
				Columns: []Column{
					serialKey("id"),
					text("company_name"),
					optionalText("user_name"),
					optionalText("mail"),
					optionalText("secret"),
					optionalText("photo_path"),
					optionalText("description"),
				},
				ForeignKeys: []ForeignKey{
					{Column: "company_name", RefTable: RelIdentification, RefColumn: "company_name"},
				},
				Indexes: []Index{
					{Name: "idx_profile_company", Columns: []string{"company_name"}, Unique: true},
				},
			},
			{
				Name: RelTasks,
				Columns: []Column{
					textKey("task_id"),
					text("title"),
					optionalText("description"),
					text("created_on"),
					optionalText("due_on"),
					optionalText("assignee"),
					optionalText("priority"),
					optionalText("status"),
				},
				Indexes: []Index{
					{Name: "idx_tasks_due", Columns: []string{"due_on"}},
				},
			},
			{
				Name: RelEvents,
				Columns: []Column{
					textKey("event_id"),
					text("title"),
					text("date"),
					text("time"),
					optionalText("place"),
					optionalText("description"),
					optionalText("assignee"),
				},
				Indexes: []Index{
					{Name: "idx_events_date", Columns: []string{"date"}},
				},
			},
			{
				Name: RelFAQs,
				Columns: []Column{
					textKey("faq_id"),
					text("question"),
					text("answer"),
					optionalText("category"),
					optionalText("updated_on"),
				},
			},
		},
	}
}

// RegistryCatalog returns the relations of the master tenant registry.
func RegistryCatalog() Catalog {
	return Catalog{
		Name:    "registry",
		Version: registryCatalogVersion,
		Relations: []Relation{
			{
				Name: RelTenants,
				Columns: []Column{
					textKey("company_name"),
					text("mail"),
					text("secret"),
					text("identifier"),
					text("registered_at"),
				},
				Indexes: []Index{
					{Name: "idx_tenants_identifier", Columns: []string{"identifier"}},
				},
			},
		},
	}
}
