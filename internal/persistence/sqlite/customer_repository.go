package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/example/appointment-scheduler/internal/persistence"
)

// CustomerRepository implements persistence.CustomerRepository using SQLite
type CustomerRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
	now    func() time.Time
}

// NewCustomerRepository creates a new SQLite customer repository
func NewCustomerRepository(pool *ConnectionPool) *CustomerRepository {
	return &CustomerRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
		now:    time.Now,
	}
}

const customerColumns = `id, name, address, city, postal_code, country, phone, created_at, updated_at`

// CreateCustomer inserts a new customer into the database
func (r *CustomerRepository) CreateCustomer(ctx context.Context, customer persistence.Customer) error {
	if customer.ID == "" || strings.TrimSpace(customer.Name) == "" {
		return persistence.ErrConstraintViolation
	}

	now := r.now().UTC()
	query := `INSERT INTO customers (` + customerColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.helper.Exec(ctx, query,
		customer.ID,
		strings.TrimSpace(customer.Name),
		customer.Address,
		customer.City,
		customer.PostalCode,
		customer.Country,
		customer.Phone,
		formatTime(now),
		formatTime(now),
	)
	return r.mapper.MapError(err)
}

// GetCustomer retrieves a customer by ID from the database
func (r *CustomerRepository) GetCustomer(ctx context.Context, id string) (persistence.Customer, error) {
	if id == "" {
		return persistence.Customer{}, persistence.ErrNotFound
	}

	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = ?`
	customer, err := scanCustomer(r.helper.QueryRow(ctx, query, id))
	if err != nil {
		return persistence.Customer{}, r.mapper.MapError(err)
	}
	return customer, nil
}

// ListCustomers returns all customers ordered by name
func (r *CustomerRepository) ListCustomers(ctx context.Context) ([]persistence.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers ORDER BY name ASC, id ASC`

	rows, err := r.helper.Query(ctx, query)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var customers []persistence.Customer
	for rows.Next() {
		customer, err := scanCustomer(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		customers = append(customers, customer)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return customers, nil
}

// DeleteCustomer removes a customer together with their appointments
func (r *CustomerRepository) DeleteCustomer(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}
	return deleteByID(ctx, r.helper, r.mapper, "customers", id)
}

func scanCustomer(row rowScanner) (persistence.Customer, error) {
	var (
		c                    persistence.Customer
		createdAt, updatedAt string
	)
	err := row.Scan(&c.ID, &c.Name, &c.Address, &c.City, &c.PostalCode, &c.Country, &c.Phone, &createdAt, &updatedAt)
	if err != nil {
		return persistence.Customer{}, err
	}

	if c.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.Customer{}, err
	}
	if c.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return persistence.Customer{}, err
	}
	return c, nil
}
