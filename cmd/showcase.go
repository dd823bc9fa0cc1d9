package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/vedsharma/momentscli/internal/format"
	"github.com/vedsharma/momentscli/internal/sdk"
	"github.com/vedsharma/momentscli/internal/showcase"
)

var (
	showcaseAdd        []string
	showcaseCustomer   showcase.Customer
	showcaseFirstOffer bool
	showcaseOps        bool
)

func init() {
	showcaseCmd := &cobra.Command{
		Use:   "showcase",
		Short: "Walk through the Moments shopping flow",
		Long: `Walk a simulated shopper from browsing to a completed order.

Offers appear at the cart, checkout and payment steps. The completed order is
reported to the launcher as a conversion. Use --ops to print the launcher side
effects a browser page would perform.`,
		Args: cobra.NoArgs,
		Run:  runShowcase,
	}

	showcaseCmd.Flags().StringSliceVar(&showcaseAdd, "add", []string{"1"}, "Product ids to add to the cart")
	showcaseCmd.Flags().StringVar(&showcaseCustomer.Email, "email", "", "Shopper email")
	showcaseCmd.Flags().StringVar(&showcaseCustomer.FirstName, "first-name", "", "Shopper first name")
	showcaseCmd.Flags().StringVar(&showcaseCustomer.LastName, "last-name", "", "Shopper last name")
	showcaseCmd.Flags().BoolVar(&showcaseFirstOffer, "first-offer", false, "Always show the first matching offer")
	showcaseCmd.Flags().BoolVar(&showcaseOps, "ops", false, "Print the launcher ops as JSON")

	rootCmd.AddCommand(showcaseCmd)
}

func runShowcase(cmd *cobra.Command, args []string) {
	doc := sdk.NewDocument()
	launcher := sdk.NewLauncher(doc)
	if err := launcher.Configure(cfg.SDKSettings(), sdk.UserData{}); err != nil {
		format.PrintError(fmt.Sprintf("Failed to configure launcher: %v", err))
		os.Exit(1)
	}

	opts := []showcase.Option{showcase.WithAdapter(launcher)}
	if showcaseFirstOffer {
		opts = append(opts, showcase.WithPicker(showcase.FirstPicker))
	}
	flow := showcase.New(opts...)

	format.PrintFlowStep(flow)
	for _, id := range showcaseAdd {
		if err := flow.AddToCart(id); err != nil {
			format.PrintError(err.Error())
			os.Exit(1)
		}
	}
	flow.SetCustomer(showcaseCustomer)

	for flow.Step() != showcase.StepSuccess {
		if err := flow.Next(); err != nil {
			format.PrintWarning(err.Error())
		}
		fmt.Fprintln(format.Out)
		format.PrintFlowStep(flow)
	}

	if showcaseOps {
		b, err := json.MarshalIndent(doc.Flush(), "", "  ")
		if err != nil {
			format.PrintError(fmt.Sprintf("Failed to encode ops: %v", err))
			os.Exit(1)
		}
		fmt.Fprintln(format.Out)
		format.PrintCommand(string(b))
	}
}
