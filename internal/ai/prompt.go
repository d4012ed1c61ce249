package ai

import (
	"fmt"
	"strings"

	"github.com/rmacedo/apontabot/internal/store"
)

// dataContext summarizes the active snapshot for the system prompt: counts,
// totals, date span and the top subjects. The model reasons over this
// summary only; actual numbers always come from tool executions.
func dataContext(snap *store.Snapshot) string {
	if snap == nil || snap.Len() == 0 {
		return "Dados não disponíveis no momento."
	}

	var b strings.Builder
	b.WriteString("CONTEXTO DOS DADOS DE APONTAMENTOS:\n\n")
	b.WriteString("**Estatísticas Gerais:**\n")
	fmt.Fprintf(&b, "- Total de registros: %d\n", snap.Len())
	fmt.Fprintf(&b, "- Total de horas: %.2fh\n", snap.TotalHours())
	fmt.Fprintf(&b, "- Recursos distintos: %d\n", len(snap.Subjects()))
	if from, to, ok := snap.Span(); ok {
		fmt.Fprintf(&b, "- Período: %s até %s\n", from.Format("02/01/2006"), to.Format("02/01/2006"))
	}

	top := snap.TopSubjects(5)
	if len(top) > 0 {
		b.WriteString("\n**Top 5 Recursos (por horas):**\n")
		for _, s := range top {
			fmt.Fprintf(&b, "- %s: %.2fh\n", s.Subject, s.Hours)
		}
	}
	return b.String()
}

// systemPrompt builds the full system message: persona, data context and
// the tool catalog with the invocation format.
func systemPrompt(snap *store.Snapshot) string {
	var b strings.Builder
	b.WriteString(`Você é um assistente inteligente especializado em análise de dados de apontamentos de trabalho.
Seu objetivo é ajudar usuários a consultar e entender os dados de forma simples e direta.

`)
	b.WriteString(dataContext(snap))
	b.WriteString(`

**DIRETRIZES:**
1. Seja CONCISO e DIRETO - respostas curtas e objetivas
2. Use emojis para tornar as respostas mais amigáveis
3. Sempre formate números (use vírgula para decimais, ex: 8,5h)
4. Se não souber algo, diga que não tem essa informação
5. Não invente dados - use apenas o que as ferramentas retornarem

**FERRAMENTAS DISPONÍVEIS:**
Você pode solicitar que eu execute funções para obter dados específicos:
`)
	for _, t := range catalog {
		fmt.Fprintf(&b, "- %s: %s\n", t.Signature, t.Purpose)
	}
	b.WriteString(`
Para usar uma ferramenta, responda APENAS no formato:
FERRAMENTA: nome_da_funcao(parametros)

Exemplo de conversa:
User: "quantas horas eu trabalhei?"
Assistant: FERRAMENTA: total_horas_usuario(Usuario Nome)

User: "qual a média geral?"
Assistant: FERRAMENTA: duracao_media_geral()`)
	return b.String()
}
