package console

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/example/appointment-scheduler/internal/calendar"
)

func (c *Console) table() *tabwriter.Writer {
	return tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
}

func (c *Console) list() error {
	if _, err := c.requireSession(); err != nil {
		return err
	}
	window, _ := c.engine.ActiveWindow()
	appointments := c.engine.Cache().CurrentAppointments()

	c.printf("Appointments for %s\n", window.String())
	if len(appointments) == 0 {
		c.println("No appointments scheduled for this period.")
		return nil
	}

	loc := c.engine.Location()
	tw := c.table()
	fmt.Fprintln(tw, "DATE\tSTART\tEND\tTYPE\tCONSULTANT\tCUSTOMER\tID")
	for _, a := range appointments {
		start, end := a.Start.In(loc), a.End.In(loc)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			start.Format(dateLayout),
			start.Format(clockLayout),
			end.Format(clockLayout),
			a.Type,
			c.consultantName(a.UserID),
			c.customerName(a.CustomerID),
			a.ID,
		)
	}
	return tw.Flush()
}

func (c *Console) customers() error {
	if _, err := c.requireSession(); err != nil {
		return err
	}
	customers := c.engine.Cache().CurrentCustomers()
	if len(customers) == 0 {
		c.println("No customers found.")
		return nil
	}

	tw := c.table()
	fmt.Fprintln(tw, "NAME\tADDRESS\tPHONE\tID")
	for _, customer := range customers {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", customer.Name, customer.AddressLine(), customer.Phone, customer.ID)
	}
	return tw.Flush()
}

func (c *Console) consultants() error {
	if _, err := c.requireSession(); err != nil {
		return err
	}
	users := c.engine.Cache().CurrentUsers()
	if len(users) == 0 {
		c.println("No consultants found.")
		return nil
	}

	tw := c.table()
	fmt.Fprintln(tw, "USERNAME\tID")
	for _, user := range users {
		fmt.Fprintf(tw, "%s\t%s\n", user.Username, user.ID)
	}
	return tw.Flush()
}

// weeks prints the buckets of the selected month, marking the active one.
func (c *Console) weeks() error {
	if _, err := c.requireSession(); err != nil {
		return err
	}
	window, _ := c.engine.ActiveWindow()

	parts := make([]string, 0, calendar.BucketCount)
	for i, label := range calendar.WeekBucketLabels(window.Year, window.Month) {
		if label == "" {
			continue
		}
		marker := " "
		if window.Week == i+1 {
			marker = "*"
		}
		parts = append(parts, fmt.Sprintf("%s%d) %s", marker, i+1, label))
	}
	c.println(strings.Join(parts, "  "))
	return nil
}

func (c *Console) customerName(id string) string {
	if customer, ok := c.engine.Cache().Customer(id); ok {
		return customer.Name
	}
	return id
}

func (c *Console) consultantName(id string) string {
	if user, ok := c.engine.Cache().User(id); ok {
		return user.Username
	}
	return id
}
