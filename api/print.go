/*
print.go - Printable contract view

PURPOSE:
  Renders a student's service contract as a self-contained HTML page the
  admin can print or save as PDF from the browser. The document is built
  from the stored contract terms; it never recomputes values.
*/
package api

import (
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/vanline/transport/billing"
	"github.com/vanline/transport/enrollment"
)

var contractTmpl = template.Must(template.New("contract").Parse(`<!DOCTYPE html>
<html>
<head>
  <title>Contrato - {{.GuardianName}}</title>
  <style>
    body {
      font-family: 'Times New Roman', serif;
      padding: 50px;
      max-width: 700px;
      margin: 0 auto;
      line-height: 1.9;
      font-size: 13px;
      color: #222;
    }
    pre {
      white-space: pre-wrap;
      font-family: 'Times New Roman', serif;
      font-size: 13px;
      line-height: 1.9;
    }
    .btn-print {
      position: fixed;
      top: 15px;
      right: 15px;
      padding: 10px 24px;
      background: #6b2c3e;
      color: white;
      border: none;
      border-radius: 8px;
      cursor: pointer;
      font-size: 14px;
      font-family: Arial, sans-serif;
    }
    .btn-print:hover { opacity: 0.9; }
    @media print { .btn-print { display: none; } }
  </style>
</head>
<body>
  <button class="btn-print" onclick="window.print()">Imprimir / Salvar PDF</button>
  <pre>{{.Body}}</pre>
</body>
</html>
`))

type contractPage struct {
	GuardianName string
	Body         string
}

// PrintContract renders the printable contract document for a student.
// GET /api/students/{id}/contract.html
func (h *Handler) PrintContract(w http.ResponseWriter, r *http.Request) {
	st, err := h.Service.GetStudent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, err, "Failed to get student")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	contractTmpl.Execute(w, contractPage{
		GuardianName: st.GuardianName,
		Body:         contractText(st),
	})
}

// contractText produces the clause-by-clause contract body. Plain text on
// purpose: the surrounding page renders it in a <pre> block so the layout
// survives printing unchanged.
func contractText(st *enrollment.Student) string {
	c := st.Contract

	var b strings.Builder
	fmt.Fprintf(&b, "CONTRATO DE PRESTACAO DE SERVICOS DE TRANSPORTE ESCOLAR\n\n")
	fmt.Fprintf(&b, "CONTRATANTE: %s\n", st.GuardianName)
	fmt.Fprintf(&b, "CPF: %s\n", st.GuardianCPF)
	fmt.Fprintf(&b, "ENDERECO: %s\n", st.Address)
	fmt.Fprintf(&b, "TELEFONE: %s\n\n", st.Phone)
	fmt.Fprintf(&b, "ALUNO TRANSPORTADO: %s (%s - %s)\n\n", st.Name, st.School, st.Shift)

	fmt.Fprintf(&b, "CLAUSULA 1 - DO OBJETO\n")
	fmt.Fprintf(&b, "O presente contrato tem por objeto a prestacao de servicos de transporte escolar\n")
	fmt.Fprintf(&b, "do aluno acima identificado, da residencia ate a escola, e vice-versa.\n\n")

	fmt.Fprintf(&b, "CLAUSULA 2 - DO VALOR E PAGAMENTO\n")
	fmt.Fprintf(&b, "Valor total anual: %s\n", brl(c.AnnualValue))
	fmt.Fprintf(&b, "Quantidade de parcelas: %d\n", c.InstallmentCount)
	fmt.Fprintf(&b, "Valor mensal: %s\n", brl(c.MonthlyValue))
	fmt.Fprintf(&b, "Vencimento: dia %d de cada mes.\n", c.DueDay)
	fmt.Fprintf(&b, "Data de inicio do contrato: %s.\n\n", brDate(c.StartDate))

	fmt.Fprintf(&b, "CLAUSULA 3 - DA MULTA POR ATRASO\n")
	fmt.Fprintf(&b, "Em caso de atraso no pagamento, incidira multa de %s%%\n", c.LateFeePercent.String())
	fmt.Fprintf(&b, "sobre o valor da mensalidade.\n\n")

	fmt.Fprintf(&b, "CLAUSULA 4 - DAS OBRIGACOES DO CONTRATANTE\n")
	fmt.Fprintf(&b, "a) Efetuar o pagamento da mensalidade ate a data de vencimento;\n")
	fmt.Fprintf(&b, "b) Comunicar com antecedencia qualquer ausencia do aluno;\n")
	fmt.Fprintf(&b, "c) Manter os dados cadastrais atualizados;\n")
	fmt.Fprintf(&b, "d) Aguardar o veiculo no local e horario combinados.\n\n")

	fmt.Fprintf(&b, "CLAUSULA 5 - DAS OBRIGACOES DO TRANSPORTADOR\n")
	fmt.Fprintf(&b, "a) Transportar o aluno com seguranca e pontualidade;\n")
	fmt.Fprintf(&b, "b) Manter o veiculo em perfeitas condicoes de uso;\n")
	fmt.Fprintf(&b, "c) Possuir todas as autorizacoes legais necessarias;\n")
	fmt.Fprintf(&b, "d) Manter seguro adequado para o transporte escolar.\n\n")

	fmt.Fprintf(&b, "CLAUSULA 6 - DA VIGENCIA\n")
	fmt.Fprintf(&b, "Este contrato tem vigencia de %d meses a partir de\n", c.InstallmentCount)
	fmt.Fprintf(&b, "%s, podendo ser renovado mediante acordo entre as partes.\n\n", brDate(c.StartDate))

	fmt.Fprintf(&b, "CLAUSULA 7 - DA RESCISAO\n")
	fmt.Fprintf(&b, "A rescisao devera ser comunicada com 30 dias de antecedencia, sob pena\n")
	fmt.Fprintf(&b, "de multa equivalente a uma mensalidade.\n\n")

	fmt.Fprintf(&b, "Data: %s\n\n\n", time.Now().Format("02/01/2006"))
	fmt.Fprintf(&b, "_______________________________\n")
	fmt.Fprintf(&b, "%s\nContratante\n\n\n", st.GuardianName)
	fmt.Fprintf(&b, "_______________________________\n")
	fmt.Fprintf(&b, "Tia Wilma - Transporte Escolar\nContratado")

	return b.String()
}

// brl formats a decimal amount as Brazilian currency (R$ 1.234,56).
func brl(d decimal.Decimal) string {
	s := d.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	intPart, fracPart, _ := strings.Cut(s, ".")
	var grouped strings.Builder
	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			grouped.WriteByte('.')
		}
		grouped.WriteRune(digit)
	}

	out := "R$ " + grouped.String() + "," + fracPart
	if neg {
		out = "-" + out
	}
	return out
}

// brDate formats a date as DD/MM/YYYY.
func brDate(d billing.Date) string {
	return fmt.Sprintf("%02d/%02d/%04d", d.Day(), int(d.Month()), d.Year())
}
