// cmd/cartctl/root.go
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"musicore/internal/application/usecase"
	productdom "musicore/internal/domain/product"
	"musicore/internal/infra/config"
	"musicore/internal/infra/logging"
	"musicore/internal/platform/di"
)

// closeTimeout bounds how long a command waits for pending cart writes on exit.
const closeTimeout = 15 * time.Second

type options struct {
	home    string
	idToken string
}

// clientFactory opens a cart client; release frees whatever the factory allocated
// besides the client itself.
type clientFactory func(ctx context.Context, opts options) (client *di.CartClient, release func(), err error)

func newRootCmd(open clientFactory) *cobra.Command {
	opts := options{}

	root := &cobra.Command{
		Use:   "cartctl",
		Short: "Inspect and edit the musicore cart on this device",
		Long: `cartctl plays the storefront client: it keeps a guest cart in a local
snapshot file and, when given a Firebase ID token, follows the account cart.

Signing in with a non-empty guest cart moves that cart to the account.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.home, "home", defaultHome(), "directory holding the local cart snapshot")
	root.PersistentFlags().StringVar(&opts.idToken, "id-token", os.Getenv("MUSICORE_ID_TOKEN"), "Firebase ID token (empty = guest)")

	// withCart loads the cart, runs fn, then waits for pending writes.
	withCart := func(fn func(cmd *cobra.Command, c *di.CartClient) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			c, release, err := open(ctx, opts)
			if err != nil {
				return err
			}
			defer release()

			runErr := c.Start(ctx, opts.idToken)
			if runErr == nil {
				runErr = fn(cmd, c)
			}

			closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), closeTimeout)
			defer cancel()
			return errors.Join(runErr, c.Close(closeCtx))
		}
	}

	show := func(cmd *cobra.Command, c *di.CartClient) error {
		printCart(cmd.OutOrStdout(), c)
		return nil
	}

	var qty int
	addCmd := &cobra.Command{
		Use:   "add <productId>",
		Short: "Add a catalog product to the cart",
		Args:  cobra.ExactArgs(1),
	}
	addCmd.Flags().IntVar(&qty, "qty", 1, "quantity to add")
	addCmd.RunE = func(cmd *cobra.Command, args []string) error {
		if qty < 1 {
			return fmt.Errorf("--qty must be at least 1 (got %d)", qty)
		}
		return withCart(func(cmd *cobra.Command, c *di.CartClient) error {
			p, err := c.Catalog.GetProductByID(cmd.Context(), args[0])
			if errors.Is(err, productdom.ErrNotFound) {
				return fmt.Errorf("product %q not found", args[0])
			}
			if err != nil {
				return fmt.Errorf("catalog lookup: %w", err)
			}
			c.Cart.AddItem(usecase.LineItemFromProduct(p, qty))
			return show(cmd, c)
		})(cmd, args)
	}

	removeCmd := &cobra.Command{
		Use:   "remove <productId>",
		Short: "Remove a product from the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCart(func(cmd *cobra.Command, c *di.CartClient) error {
				c.Cart.RemoveItem(args[0])
				return show(cmd, c)
			})(cmd, args)
		},
	}

	setCmd := &cobra.Command{
		Use:   "set <productId> <qty>",
		Short: "Set the quantity of a product (0 removes it)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(strings.TrimSpace(args[1]))
			if err != nil {
				return fmt.Errorf("invalid quantity %q", args[1])
			}
			return withCart(func(cmd *cobra.Command, c *di.CartClient) error {
				c.Cart.UpdateItemQuantity(args[0], n)
				return show(cmd, c)
			})(cmd, args)
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		Args:  cobra.NoArgs,
		RunE: withCart(func(cmd *cobra.Command, c *di.CartClient) error {
			c.Cart.ClearCart()
			return show(cmd, c)
		}),
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the cart",
		Args:  cobra.NoArgs,
		RunE:  withCart(show),
	}

	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Load the cart for the current identity (merging the guest cart on sign-in) and print it",
		Args:  cobra.NoArgs,
		RunE: withCart(func(cmd *cobra.Command, c *di.CartClient) error {
			fmt.Fprintf(cmd.OutOrStdout(), "identity: %s\n", c.Cart.Identity())
			return show(cmd, c)
		}),
	}

	root.AddCommand(showCmd, addCmd, removeCmd, setCmd, clearCmd, syncCmd)
	return root
}

func printCart(w io.Writer, c *di.CartClient) {
	items := c.Cart.Items()
	if len(items) == 0 {
		fmt.Fprintln(w, "cart is empty")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PRODUCT\tNAME\tQTY\tPRICE")
	for _, it := range items {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%.2f\n", it.ProductID, it.Name, it.Quantity, it.Price)
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "%d item(s)\n", c.Cart.CartCount())
}

func defaultHome() string {
	if h := strings.TrimSpace(os.Getenv("CARTCTL_HOME")); h != "" {
		return h
	}
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "musicore")
	}
	return ".musicore"
}

// openClient builds the client from process configuration.
func openClient(ctx context.Context, opts options) (*di.CartClient, func(), error) {
	cfg, err := config.Load(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.Env)
	if err != nil {
		return nil, nil, err
	}

	infra, err := di.NewInfra(ctx, cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, nil, err
	}
	client, err := di.NewCartClient(infra, opts.home, logger)
	if err != nil {
		_ = infra.Close()
		_ = logger.Sync()
		return nil, nil, err
	}

	release := func() {
		if err := infra.Close(); err != nil {
			logger.Warn("infra close error", zap.Error(err))
		}
		_ = logger.Sync()
	}
	return client, release, nil
}
