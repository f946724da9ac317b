// Package seed loads YAML or CUE fixtures of CRM records into a tenant store.
package seed

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/datanexus/crmstore/internal/crm"
)

// Fixture is the content of a seed file.
type Fixture struct {
	// Company names the tenant the fixture is meant for. Informational.
	Company string `json:"company,omitempty" yaml:"company,omitempty"`

	Customers     []Customer    `json:"customers,omitempty" yaml:"customers,omitempty"`
	Opportunities []Opportunity `json:"opportunities,omitempty" yaml:"opportunities,omitempty"`
	Budgets       []Budget      `json:"budgets,omitempty" yaml:"budgets,omitempty"`
	Products      []Product     `json:"products,omitempty" yaml:"products,omitempty"`
	Tasks         []Task        `json:"tasks,omitempty" yaml:"tasks,omitempty"`
	Events        []Event       `json:"events,omitempty" yaml:"events,omitempty"`
	FAQs          []FAQ         `json:"faqs,omitempty" yaml:"faqs,omitempty"`
}

// Customer is a customer entry of a fixture.
type Customer struct {
	ID            string `json:"id" yaml:"id"`
	Name          string `json:"name" yaml:"name"`
	Address       string `json:"address,omitempty" yaml:"address,omitempty"`
	Phone         string `json:"phone,omitempty" yaml:"phone,omitempty"`
	ContactPerson string `json:"contact_person,omitempty" yaml:"contact_person,omitempty"`
	Email         string `json:"email,omitempty" yaml:"email,omitempty"`
}

// Opportunity is an opportunity entry of a fixture.
type Opportunity struct {
	ID              string  `json:"id" yaml:"id"`
	Name            string  `json:"name" yaml:"name"`
	CustomerID      string  `json:"customer_id" yaml:"customer_id"`
	Date            string  `json:"date" yaml:"date"`
	BudgetID        string  `json:"budget_id,omitempty" yaml:"budget_id,omitempty"`
	ExpectedRevenue float64 `json:"expected_revenue" yaml:"expected_revenue"`
	Stage           string  `json:"stage" yaml:"stage"`
}

// Budget is a budget entry of a fixture.
type Budget struct {
	ID         string  `json:"id" yaml:"id"`
	Name       string  `json:"name" yaml:"name"`
	CustomerID string  `json:"customer_id" yaml:"customer_id"`
	CreatedOn  string  `json:"created_on" yaml:"created_on"`
	ExpiresOn  string  `json:"expires_on" yaml:"expires_on"`
	Subtotal   float64 `json:"subtotal" yaml:"subtotal"`
	Total      float64 `json:"total" yaml:"total"`
}

// Product is a product entry of a fixture.
type Product struct {
	Supplier    string  `json:"supplier" yaml:"supplier"`
	Name        string  `json:"name" yaml:"name"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
	TaxRate     int64   `json:"tax_rate" yaml:"tax_rate"`
	Price       float64 `json:"price" yaml:"price"`
	Stock       int64   `json:"stock" yaml:"stock"`
}

// Task is a task entry of a fixture.
type Task struct {
	ID          string `json:"id,omitempty" yaml:"id,omitempty"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	CreatedOn   string `json:"created_on,omitempty" yaml:"created_on,omitempty"`
	DueOn       string `json:"due_on,omitempty" yaml:"due_on,omitempty"`
	Assignee    string `json:"assignee,omitempty" yaml:"assignee,omitempty"`
	Priority    string `json:"priority,omitempty" yaml:"priority,omitempty"`
	Status      string `json:"status,omitempty" yaml:"status,omitempty"`
}

// Event is an event entry of a fixture.
type Event struct {
	ID          string `json:"id,omitempty" yaml:"id,omitempty"`
	Title       string `json:"title" yaml:"title"`
	Date        string `json:"date" yaml:"date"`
	Time        string `json:"time" yaml:"time"`
	Place       string `json:"place,omitempty" yaml:"place,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Assignee    string `json:"assignee,omitempty" yaml:"assignee,omitempty"`
}

// FAQ is a knowledge base entry of a fixture.
type FAQ struct {
	ID       string `json:"id,omitempty" yaml:"id,omitempty"`
	Question string `json:"question" yaml:"question"`
	Answer   string `json:"answer" yaml:"answer"`
	Category string `json:"category,omitempty" yaml:"category,omitempty"`
}

// Load reads and parses a fixture file. Files ending in .cue are checked
// against the fixture schema; anything else is read as YAML.
func Load(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture file: %w", err)
	}
	if filepath.Ext(path) == ".cue" {
		return ParseCUE(filepath.Base(path), data)
	}
	return Parse(bytes.NewReader(data))
}

// Parse decodes a fixture. Unknown fields are rejected so typos surface
// instead of silently seeding empty values.
func Parse(r io.Reader) (*Fixture, error) {
	var fx Fixture
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&fx); err != nil {
		if errors.Is(err, io.EOF) {
			return &fx, nil
		}
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &fx, nil
}

func (c Customer) record() crm.Customer {
	return crm.Customer{ID: c.ID, Name: c.Name, Address: c.Address, Phone: c.Phone,
		ContactPerson: c.ContactPerson, Email: c.Email}
}

func (o Opportunity) record() crm.Opportunity {
	return crm.Opportunity{ID: o.ID, Name: o.Name, CustomerID: o.CustomerID, Date: o.Date,
		BudgetID: o.BudgetID, ExpectedRevenue: o.ExpectedRevenue, Stage: o.Stage}
}

func (b Budget) record() crm.Budget {
	return crm.Budget{ID: b.ID, Name: b.Name, CustomerID: b.CustomerID, CreatedOn: b.CreatedOn,
		ExpiresOn: b.ExpiresOn, Subtotal: b.Subtotal, Total: b.Total}
}

func (p Product) record() crm.Product {
	return crm.Product{Supplier: p.Supplier, Name: p.Name, Description: p.Description,
		TaxRate: p.TaxRate, Price: p.Price, Stock: p.Stock}
}

func (t Task) record() crm.Task {
	return crm.Task{ID: t.ID, Title: t.Title, Description: t.Description, CreatedOn: t.CreatedOn,
		DueOn: t.DueOn, Assignee: t.Assignee, Priority: t.Priority, Status: t.Status}
}

func (e Event) record() crm.Event {
	return crm.Event{ID: e.ID, Title: e.Title, Date: e.Date, Time: e.Time, Place: e.Place,
		Description: e.Description, Assignee: e.Assignee}
}

func (f FAQ) record() crm.FAQ {
	return crm.FAQ{ID: f.ID, Question: f.Question, Answer: f.Answer, Category: f.Category}
}
