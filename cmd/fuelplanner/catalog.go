package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"fuelplanner/internal/catalog"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Browse and import nutrition products",
}

var (
	listCategory     string
	listSearch       string
	listCaffeineOnly bool
	listCaffeineFree bool
	labelCategory    string
	labelSave        bool
)

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List active products",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		products, err := a.Products().ListActive(cmd.Context())
		if err != nil {
			return err
		}
		products = catalog.Filter(products, catalog.Filters{
			Category:     catalog.Category(listCategory),
			Search:       listSearch,
			CaffeineOnly: listCaffeineOnly,
			CaffeineFree: listCaffeineFree,
		}, nil)

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tBRAND\tNAME\tCATEGORY\tCARBS\tSODIUM\tCAFFEINE")
		for _, p := range products {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.0f\t%.0f\t%.0f\n", p.ID, p.Brand, p.Name, p.Category, p.CarbsGrams, p.SodiumMg, p.CaffeineMg)
		}
		return w.Flush()
	},
}

var catalogImportCmd = &cobra.Command{
	Use:   "import <seed.yaml>",
	Short: "Import products from a YAML seed file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.ImportSeed(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d products\n", n)
		return nil
	},
}

var catalogParseLabelCmd = &cobra.Command{
	Use:   "parse-label <page.html>",
	Short: "Draft a product from a saved nutrition-facts page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		category := catalog.Category(labelCategory)
		if !category.Valid() {
			return fmt.Errorf("unknown --category %q", labelCategory)
		}
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		var p *catalog.Product
		if labelSave {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			if p, err = a.ImportLabel(cmd.Context(), f, category); err != nil {
				return err
			}
		} else if p, err = catalog.ParseLabel(f, category); err != nil {
			return err
		}

		out, err := catalog.MarshalSeed([]catalog.Product{*p})
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

func init() {
	catalogListCmd.Flags().StringVar(&listCategory, "category", "", "Only products in this category")
	catalogListCmd.Flags().StringVar(&listSearch, "search", "", "Match brand or name")
	catalogListCmd.Flags().BoolVar(&listCaffeineOnly, "caffeine", false, "Only caffeinated products")
	catalogListCmd.Flags().BoolVar(&listCaffeineFree, "no-caffeine", false, "Only caffeine-free products")
	catalogParseLabelCmd.Flags().StringVar(&labelCategory, "category", string(catalog.CategoryGel), "Product category")
	catalogParseLabelCmd.Flags().BoolVar(&labelSave, "save", false, "Import the parsed product into the catalog")

	catalogCmd.AddCommand(catalogListCmd, catalogImportCmd, catalogParseLabelCmd)
	rootCmd.AddCommand(catalogCmd)
}
