// Package stubapi é um substituto local do endpoint de criação de documentos.
//
// Aceita POST {"document": ..., "sign": "..."} em DocumentsPath, responde
// {"value": "<id>"} e aplica a própria cota (Quota: token bucket por chave,
// golang.org/x/time/rate), devolvendo 429 com Retry-After igual ao atraso do
// próximo token quando o cliente passa do limite. Usado por cmd/stub-endpoint e por testes de integração.
package stubapi
