package domain

import "context"

// Serializer converte documento + assinatura no payload enviado ao endpoint.
// Deve ser determinístico e sem efeitos colaterais.
type Serializer interface {
	Serialize(document any, signature string) ([]byte, error)
}

// Transport envia um payload já serializado para o destino fixo e devolve o
// corpo da resposta.
type Transport interface {
	Send(ctx context.Context, payload []byte) ([]byte, error)
}

// Outcome é o resultado de uma submissão: Body em caso de sucesso, Err em
// caso de falha. Nunca é persistido.
type Outcome struct {
	RequestID string
	Body      []byte
	Err       error
}

func (o Outcome) Success() bool { return o.Err == nil }

type requestIDKey struct{}

// WithRequestID anexa o id da submissão ao contexto para o transporte.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
