package listview

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// Render writes st as a text table. A recorded error is shown as a banner
// above whatever else the state holds.
func Render(w io.Writer, st State) error {
	if st.Err != nil {
		if _, err := fmt.Fprintf(w, "Error: %v\n", st.Err); err != nil {
			return err
		}
	}
	if st.Loading {
		_, err := fmt.Fprintln(w, "Loading...")
		return err
	}
	if st.Empty() {
		_, err := fmt.Fprintln(w, "No orders found")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "Order ID\tCustomer\tStatus\tTotal")
	fmt.Fprintln(tw, "--------\t--------\t------\t-----")
	for _, o := range st.Orders {
		fmt.Fprintf(tw, "%d\t%s\t%s\t$%.2f\n", o.ID, o.CustomerName, o.Status, o.Total)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if st.SearchTerm != "" {
		_, err := fmt.Fprintf(w, "%d of %d orders match %q\n", len(st.Orders), st.Total, st.SearchTerm)
		return err
	}
	return nil
}
