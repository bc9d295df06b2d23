package cli

import (
	"fmt"

	"github.com/flowbaker/categorizer/pkg/categorizer"
	"github.com/spf13/cobra"
)

func NewCategoriesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List the budget categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), categorizer.Listing())
			return err
		},
	}
}
