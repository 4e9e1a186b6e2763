package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/glefebvre/mediacatalog/internal/config"
	"github.com/glefebvre/mediacatalog/internal/database"
	"github.com/glefebvre/mediacatalog/internal/external/paypal"
	"github.com/glefebvre/mediacatalog/internal/logger"
)

var plansCmd = &cobra.Command{
	Use:   "plans",
	Short: "Manage subscription plans at the payment provider",
}

var plansReconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Create the product and default plans when none of the stored plans is active",
	Long: `Load the local plan catalog, create the product if it is missing and, when
none of the stored plan ids is active at the provider, create the default plans.
Plans are only ever added to the local catalog.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Get()
		log := logger.AppLogger()

		requirePayPal(cfg)
		openDatabase()

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		catalog, err := newBillingService(cfg).ReconcilePlans(ctx)
		cancel()
		database.Close()
		if err != nil {
			log.Error("failed to reconcile plans", err)
			exit(1)
		}

		fmt.Printf("Product: %s\n", catalog.ProductID)
		fmt.Printf("Plans:   %d\n", len(catalog.Plans))
		for _, p := range catalog.Plans {
			fmt.Printf("  - %-14s %-5s %6s %s  (%s)\n", p.PlanName, p.IntervalUnit, p.Price, p.Currency, p.PlanID)
		}
	},
}

var plansActivateCmd = &cobra.Command{
	Use:   "activate <plan-id>",
	Short: "Activate a plan at the provider",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runPlanAction("activate", args[0], func(ctx context.Context, client *paypal.Client) error {
			return client.ActivatePlan(ctx, args[0])
		})
		fmt.Printf("Plan %s activated\n", args[0])
	},
}

var plansDeactivateCmd = &cobra.Command{
	Use:   "deactivate <plan-id>",
	Short: "Deactivate a plan at the provider",
	Long: `Deactivate a plan so that no new subscription can be created on it.
Existing subscriptions are not affected and the local plan catalog is left as is.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runPlanAction("deactivate", args[0], func(ctx context.Context, client *paypal.Client) error {
			return client.DeactivatePlan(ctx, args[0])
		})
		fmt.Printf("Plan %s deactivated\n", args[0])
	},
}

var plansShowCmd = &cobra.Command{
	Use:   "show <plan-id>",
	Short: "Show a plan as the provider stores it",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var plan *paypal.BillingPlan
		runPlanAction("show", args[0], func(ctx context.Context, client *paypal.Client) error {
			var err error
			plan, err = client.ShowPlan(ctx, args[0])
			return err
		})
		printBillingPlan(plan)
	},
}

// runPlanAction calls the provider for one plan, exiting on failure.
// These commands never touch the database.
func runPlanAction(action, planID string, fn func(ctx context.Context, client *paypal.Client) error) {
	cfg := config.Get()
	requirePayPal(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := fn(ctx, newPayPalClient(cfg)); err != nil {
		logger.AppLogger().WithFields(map[string]interface{}{
			"plan_id": planID,
		}).Error("failed to "+action+" plan", err)
		cancel()
		exit(1)
	}
}

func requirePayPal(cfg *config.Config) {
	if !cfg.PayPal.Enabled {
		fmt.Fprintln(os.Stderr, "paypal.enabled is false: payment provider is not configured")
		exit(1)
	}
}

func printBillingPlan(plan *paypal.BillingPlan) {
	fmt.Printf("Plan:    %s\n", plan.ID)
	fmt.Printf("Name:    %s\n", plan.Name)
	fmt.Printf("Status:  %s\n", plan.Status)
	fmt.Printf("Product: %s\n", plan.ProductID)
	for _, cycle := range plan.BillingCycles {
		price := "-"
		if fixed := cycle.PricingScheme.FixedPrice; fixed != nil {
			price = fixed.Value + " " + fixed.CurrencyCode
		}
		fmt.Printf("  - #%d %-7s every %d %s: %s\n",
			cycle.Sequence, cycle.TenureType, cycle.Frequency.IntervalCount, cycle.Frequency.IntervalUnit, price)
	}
}

func init() {
	plansCmd.AddCommand(plansReconcileCmd, plansActivateCmd, plansDeactivateCmd, plansShowCmd)
}
