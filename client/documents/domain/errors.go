package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration indica parâmetros de construção inválidos.
	ErrConfiguration = errors.New("invalid configuration")
	// ErrCancelled indica que o chamador abandonou um Acquire pendente.
	ErrCancelled = errors.New("admission cancelled")
	// ErrSerialization indica que o payload não pôde ser codificado.
	ErrSerialization = errors.New("serialization failed")
	// ErrTransport indica falha de rede ou do endpoint remoto.
	ErrTransport = errors.New("transport failed")
	// ErrClosed indica uso do controlador de admissão depois de Close.
	ErrClosed = errors.New("admission controller closed")
)

// StatusError é retornado pelo transporte quando o endpoint responde fora da
// faixa 2xx. O corpo é repassado sem interpretação.
type StatusError struct {
	Code int
	Body []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", ErrTransport, e.Code)
}

func (e *StatusError) Unwrap() error { return ErrTransport }

func IsCancelled(err error) bool { return errors.Is(err, ErrCancelled) }
