// Package infra contém implementações concretas (infraestrutura) para os contratos
// definidos no pacote domain.
//
// Exemplos:
//   - PermitPool: controlador de admissão com fila FIFO e reposição por janela
//   - JSONSerializer: envelope {"document", "sign"} em JSON
//   - HTTPTransport: POST application/json para um endpoint fixo
//   - MemoryStatsStore / RedisStatsStore: estatísticas de submissão
package infra
