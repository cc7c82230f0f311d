package domain

import (
	"context"
	"fmt"
	"math"
	"time"
)

// ResetPolicy define como a capacidade é reposta a cada janela.
type ResetPolicy int

const (
	// ResetFull repõe o pool inteiro (requestLimit) a cada tick,
	// independentemente de permits ainda em uso: "N requisições por janela".
	ResetFull ResetPolicy = iota
	// Drip devolve um único permit por tick (limitador de taxa constante).
	Drip
)

func (p ResetPolicy) String() string {
	switch p {
	case ResetFull:
		return "reset"
	case Drip:
		return "drip"
	default:
		return fmt.Sprintf("ResetPolicy(%d)", int(p))
	}
}

// ParseResetPolicy aceita "reset" (ou vazio) e "drip".
func ParseResetPolicy(s string) (ResetPolicy, error) {
	switch s {
	case "", "reset", "reset-full":
		return ResetFull, nil
	case "drip":
		return Drip, nil
	default:
		return 0, fmt.Errorf("%w: unknown reset policy %q", ErrConfiguration, s)
	}
}

// Window é o intervalo recorrente de reposição: Count vezes Unit
// (ex.: 10 x time.Second).
type Window struct {
	Unit  time.Duration
	Count int
}

func (w Window) Duration() time.Duration { return w.Unit * time.Duration(w.Count) }

func (w Window) Validate() error {
	if w.Unit <= 0 {
		return fmt.Errorf("%w: window unit must be > 0, got %s", ErrConfiguration, w.Unit)
	}
	if w.Count < 1 {
		return fmt.Errorf("%w: window count must be >= 1, got %d", ErrConfiguration, w.Count)
	}
	// Unit*Count precisa caber em time.Duration (int64 de nanossegundos).
	if int64(w.Count) > math.MaxInt64/int64(w.Unit) || w.Duration() <= 0 {
		return fmt.Errorf("%w: window %d x %s overflows time.Duration", ErrConfiguration, w.Count, w.Unit)
	}
	return nil
}

// PermitPool é o controlador de admissão compartilhado.
//
// Acquire bloqueia até haver um permit ou até o ctx encerrar; em caso de
// cancelamento nenhum permit é consumido. Release devolve um permit e nunca
// ultrapassa o limite configurado. Cada Acquire bem-sucedido deve ser seguido
// de exatamente um Release.
type PermitPool interface {
	Acquire(ctx context.Context) error
	Release()
}
