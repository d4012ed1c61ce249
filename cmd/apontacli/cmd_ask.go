package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rmacedo/apontabot/internal/engine"
	"github.com/rmacedo/apontabot/internal/intent"
)

func newAskCommand() *cobra.Command {
	var (
		user     string
		refYear  int
		showData bool
	)

	cmd := &cobra.Command{
		Use:   "ask <pergunta>",
		Short: "Responde uma pergunta sobre os apontamentos",
		Long: `Responde uma pergunta em linguagem natural usando o roteador de
palavras-chave, sem backend de IA.

Exemplos:
  apontacli ask "qual a média de horas?"
  apontacli ask --user "Alice Souza" "quanto apontei hoje?"
  apontacli ask "resumo de 01/09/2025 a 30/09/2025"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			handle, err := loadSnapshot(cmd)
			if err != nil {
				return err
			}

			eng := engine.New(handle)
			var opts []intent.Option
			if refYear > 0 {
				opts = append(opts, intent.WithReferenceYear(refYear))
			}
			router := intent.New(eng, opts...)

			result := router.Answer(args[0], user)
			fmt.Fprintln(cmd.OutOrStdout(), result.Text)

			if showData && result.Data != nil {
				raw, err := json.MarshalIndent(result.Data, "", "  ")
				if err != nil {
					return fmt.Errorf("serializar dados: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(raw))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "Identidade para consultas pessoais (meu/minha)")
	cmd.Flags().IntVar(&refYear, "year", 0, "Ano de referência para datas sem ano")
	cmd.Flags().BoolVar(&showData, "data", false, "Imprime também os dados estruturados em JSON")

	return cmd
}
