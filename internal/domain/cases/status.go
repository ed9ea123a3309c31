package cases

type Status string

const (
	StatusNovo                Status = "novo"
	StatusAtribuido           Status = "atribuido"
	StatusEmAtendimento       Status = "em_atendimento"
	StatusCalculoPendente     Status = "calculo_pendente"
	StatusCalculoAprovado     Status = "calculo_aprovado"
	StatusCalculoReprovado    Status = "calculo_reprovado"
	StatusFechamentoPendente  Status = "fechamento_pendente"
	StatusFechamentoAprovado  Status = "fechamento_aprovado"
	StatusFechamentoReprovado Status = "fechamento_reprovado"
	StatusFinanceiroPendente  Status = "financeiro_pendente"
	StatusDevolvidoFinanceiro Status = "devolvido_financeiro"
	StatusContratoEfetivado   Status = "contrato_efetivado"
	StatusContratoCancelado   Status = "contrato_cancelado"
	StatusCasoCancelado       Status = "caso_cancelado"
	StatusEncerrado           Status = "encerrado"
)

// transitions is the only authority on which status may follow which.
// Terminal statuses have no entry.
var transitions = map[Status][]Status{
	StatusNovo:                {StatusAtribuido, StatusCasoCancelado},
	StatusAtribuido:           {StatusEmAtendimento, StatusNovo, StatusCasoCancelado},
	StatusEmAtendimento:       {StatusCalculoPendente, StatusEncerrado, StatusCasoCancelado},
	StatusCalculoPendente:     {StatusCalculoAprovado, StatusCalculoReprovado, StatusCasoCancelado},
	StatusCalculoAprovado:     {StatusFechamentoPendente, StatusCasoCancelado},
	StatusCalculoReprovado:    {StatusCalculoPendente, StatusEmAtendimento, StatusCasoCancelado},
	StatusFechamentoPendente:  {StatusFechamentoAprovado, StatusFechamentoReprovado, StatusCasoCancelado},
	StatusFechamentoAprovado:  {StatusFinanceiroPendente, StatusCasoCancelado},
	StatusFechamentoReprovado: {StatusFechamentoPendente, StatusCalculoPendente, StatusCasoCancelado},
	StatusFinanceiroPendente:  {StatusContratoEfetivado, StatusDevolvidoFinanceiro, StatusContratoCancelado},
	StatusDevolvidoFinanceiro: {StatusFechamentoPendente, StatusFinanceiroPendente, StatusCasoCancelado},
}

var terminal = map[Status]bool{
	StatusContratoEfetivado: true,
	StatusContratoCancelado: true,
	StatusCasoCancelado:     true,
	StatusEncerrado:         true,
}

// TerminalStatuses lists the statuses that close a case, in a stable order
// suitable for SQL IN clauses.
func TerminalStatuses() []Status {
	return []Status{StatusContratoEfetivado, StatusContratoCancelado, StatusCasoCancelado, StatusEncerrado}
}

func TerminalStatusStrings() []string {
	ts := TerminalStatuses()
	out := make([]string, 0, len(ts))
	for _, s := range ts {
		out = append(out, string(s))
	}
	return out
}

func (s Status) IsTerminal() bool { return terminal[s] }

func (s Status) IsOpen() bool { return s.Valid() && !terminal[s] }

func (s Status) Valid() bool {
	if terminal[s] {
		return true
	}
	_, ok := transitions[s]
	return ok
}

// Successors returns a copy of the statuses reachable in one step.
func (s Status) Successors() []Status {
	next := transitions[s]
	out := make([]Status, len(next))
	copy(out, next)
	return out
}

// CanTransition reports whether to directly follows from.
func CanTransition(from, to Status) bool {
	if terminal[from] {
		return false
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// EventDomain names the queue stage that owns a status; status change
// events are typed "<domain>.<status>".
func (s Status) EventDomain() string {
	switch s {
	case StatusCalculoPendente, StatusCalculoAprovado, StatusCalculoReprovado:
		return "calculation"
	case StatusFechamentoPendente, StatusFechamentoAprovado, StatusFechamentoReprovado:
		return "closing"
	case StatusFinanceiroPendente, StatusDevolvidoFinanceiro:
		return "finance"
	case StatusContratoEfetivado, StatusContratoCancelado:
		return "contract"
	default:
		return "case"
	}
}

func (s Status) TransitionEventType() string {
	return s.EventDomain() + "." + string(s)
}
