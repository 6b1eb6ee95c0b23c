package main

import (
	"fmt"
	"strconv"

	"orderdesk/internal/config"
	"orderdesk/internal/listview"
	"orderdesk/internal/models"
	"orderdesk/internal/orderapi"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// orderdesk orders …: every subcommand goes through the API client, so they
// work against any running server.
func (c *cli) ordersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "List and manage orders through the API",
	}
	cmd.AddCommand(c.ordersListCmd())
	cmd.AddCommand(c.ordersGetCmd())
	cmd.AddCommand(c.ordersCreateCmd())
	cmd.AddCommand(c.ordersSetStatusCmd())
	cmd.AddCommand(c.ordersDeleteCmd())
	return cmd
}

func (c *cli) ordersListCmd() *cobra.Command {
	var search string
	var serverSearch bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the order table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := c.load()
			if err != nil {
				return err
			}
			client := newAPIClient(cfg, log)

			if serverSearch {
				orders, err := client.SearchByCustomer(cmd.Context(), search)
				st := listview.State{Orders: orders, Total: len(orders), SearchTerm: search, Err: err}
				if rerr := listview.Render(cmd.OutOrStdout(), st); rerr != nil {
					return rerr
				}
				return err
			}

			view, err := newView(cfg, log, client)
			if err != nil {
				return err
			}
			defer view.Close()

			mountErr := view.Mount(cmd.Context())
			view.SetSearchTerm(search)
			if err := listview.Render(cmd.OutOrStdout(), view.Snapshot()); err != nil {
				return err
			}
			return mountErr
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "show only orders whose customer name contains this text")
	cmd.Flags().BoolVar(&serverSearch, "server-search", false, "filter on the server instead of locally")
	return cmd
}

func (c *cli) ordersGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Print one order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseOrderID(args[0])
			if err != nil {
				return err
			}
			cfg, log, err := c.load()
			if err != nil {
				return err
			}

			order, err := newAPIClient(cfg, log).GetByID(cmd.Context(), id)
			if err != nil {
				return err
			}
			return listview.Render(cmd.OutOrStdout(), listview.State{Orders: []models.Order{*order}, Total: 1})
		},
	}
}

func (c *cli) ordersCreateCmd() *cobra.Command {
	var (
		customer string
		total    float64
		status   string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			order := models.Order{CustomerName: customer, Total: total}
			if status != "" {
				s, err := models.ParseStatus(status)
				if err != nil {
					return err
				}
				order.Status = s
			}

			cfg, log, err := c.load()
			if err != nil {
				return err
			}
			created, err := newAPIClient(cfg, log).Create(cmd.Context(), order)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created order %d\n", created.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&customer, "customer", "", "customer name (required)")
	cmd.Flags().Float64Var(&total, "total", 0, "order total")
	cmd.Flags().StringVar(&status, "status", "", "initial status (default PENDING)")
	_ = cmd.MarkFlagRequired("customer")
	return cmd
}

func (c *cli) ordersSetStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-status <id> <status>",
		Short: "Change an order's status and print the refreshed table",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseOrderID(args[0])
			if err != nil {
				return err
			}
			status, err := models.ParseStatus(args[1])
			if err != nil {
				return err
			}
			return c.mutate(cmd, func(view *listview.Controller) error {
				return view.ChangeStatus(cmd.Context(), id, status)
			})
		},
	}
}

func (c *cli) ordersDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an order and print the refreshed table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseOrderID(args[0])
			if err != nil {
				return err
			}
			return c.mutate(cmd, func(view *listview.Controller) error {
				return view.Delete(cmd.Context(), id)
			})
		},
	}
}

// mutate mounts a list view, applies fn and renders the resynced table,
// error banner included.
func (c *cli) mutate(cmd *cobra.Command, fn func(*listview.Controller) error) error {
	cfg, log, err := c.load()
	if err != nil {
		return err
	}
	view, err := newView(cfg, log, newAPIClient(cfg, log))
	if err != nil {
		return err
	}
	defer view.Close()

	if err := view.Mount(cmd.Context()); err != nil {
		_ = listview.Render(cmd.OutOrStdout(), view.Snapshot())
		return err
	}
	mutErr := fn(view)
	if err := listview.Render(cmd.OutOrStdout(), view.Snapshot()); err != nil {
		return err
	}
	return mutErr
}

func newView(cfg *config.Config, log *zap.Logger, client *orderapi.Client) (*listview.Controller, error) {
	mode, err := listview.ParseSyncMode(cfg.SyncMode)
	if err != nil {
		return nil, err
	}
	return listview.NewController(client, listview.WithSyncMode(mode), listview.WithLogger(log)), nil
}

func parseOrderID(raw string) (uint64, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid order id %q", raw)
	}
	return id, nil
}
