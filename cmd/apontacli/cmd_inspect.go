package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInspectCommand() *cobra.Command {
	var top int

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Mostra um resumo do dataset carregado",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			handle, err := loadSnapshot(cmd)
			if err != nil {
				return err
			}
			snap := handle.Current()
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "Registros:  %d\n", snap.Len())
			fmt.Fprintf(out, "Recursos:   %d\n", len(snap.Subjects()))
			fmt.Fprintf(out, "Horas:      %.2fh\n", snap.TotalHours())
			if from, to, ok := snap.Span(); ok {
				fmt.Fprintf(out, "Período:    %s a %s\n", from.Format("02/01/2006"), to.Format("02/01/2006"))
			}

			subjects := snap.TopSubjects(top)
			if len(subjects) > 0 {
				fmt.Fprintf(out, "\nTop %d recursos:\n", len(subjects))
				for i, s := range subjects {
					fmt.Fprintf(out, "%2d. %s: %.2fh\n", i+1, s.Subject, s.Hours)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&top, "top", 10, "Quantos recursos listar")

	return cmd
}
