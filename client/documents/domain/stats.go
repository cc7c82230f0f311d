package domain

import (
	"context"
	"time"
)

// OutcomeKind classifica o resultado de uma submissão para estatísticas e
// métricas.
type OutcomeKind string

const (
	OutcomeSuccess       OutcomeKind = "success"
	OutcomeCancelled     OutcomeKind = "cancelled"
	OutcomeSerialization OutcomeKind = "serialization_error"
	OutcomeTransport     OutcomeKind = "transport_error"
	OutcomeClosed        OutcomeKind = "closed"
)

// StatsEvent representa uma submissão concluída (com ou sem sucesso).
//
// Observação: RequestID tem cardinalidade alta; implementações não devem
// usá-lo como chave de série temporal.
type StatsEvent struct {
	RequestID string
	Outcome   OutcomeKind

	// Wait é o tempo gasto esperando admissão.
	Wait time.Duration
	// Took é o tempo total da submissão, incluindo a espera.
	Took time.Duration

	At time.Time
}

// StatsStore é a estratégia de persistência para estatísticas de envio.
//
// O dispatcher trata erro como best-effort (não derruba a submissão).
type StatsStore interface {
	Record(ctx context.Context, ev StatsEvent) error
}
