package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rmacedo/apontabot/internal/store"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apontacli",
		Short: "Apontacli - consultas de apontamentos pela linha de comando",
		Long: `Apontacli consulta um arquivo de apontamentos sem subir o servidor.

Aponta para o mesmo CSV ou banco SQLite usado pelo serviço e responde
perguntas em linguagem natural ou inspeciona o conteúdo carregado.`,
		Version:      version,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String("source", "csv", "Origem do dataset: csv ou sqlite")
	cmd.PersistentFlags().String("path", "./data/apontamentos.csv", "Caminho do arquivo de dados")

	cmd.AddCommand(newAskCommand())
	cmd.AddCommand(newInspectCommand())

	return cmd
}

// loadSnapshot reads the dataset named by the persistent flags.
func loadSnapshot(cmd *cobra.Command) (*store.Handle, error) {
	source, _ := cmd.Flags().GetString("source")
	path, _ := cmd.Flags().GetString("path")

	var loader store.Loader
	switch source {
	case "csv":
		loader = store.NewCSVLoader(path)
	case "sqlite":
		loader = store.NewSQLiteLoader(path)
	default:
		return nil, fmt.Errorf("origem desconhecida %q: use csv ou sqlite", source)
	}

	handle := store.NewHandle()
	if err := handle.Reload(context.Background(), loader); err != nil {
		return nil, fmt.Errorf("carregar dataset: %w", err)
	}
	return handle, nil
}
