// Package documents é o cliente de envio de documentos assinados com limite de
// requisições por janela.
//
// Visão geral (camadas):
//
//   - domain: contratos e tipos do domínio (sem dependência de net/http)
//   - application: caso de uso Dispatcher (acquire, serialize, send, release)
//   - infra: implementações concretas (PermitPool, JSON, HTTP, stats)
//   - metrics: coletores Prometheus
//   - documents (este pacote): Options + wiring em um Client pronto para uso
//
// Fluxo de uma submissão:
//
//  1. Client.Submit espera um permit do PermitPool (FIFO, cancelável pelo ctx)
//  2. Serializa {"document": ..., "sign": ...}
//  3. POST application/json para o endpoint configurado
//  4. Devolve o permit em qualquer caminho de saída e retorna o resultado
//
// A cada janela (WindowCount x WindowUnit) o pool volta a RequestLimit
// permits (ResetFull) ou ganha um permit (Drip).
package documents
