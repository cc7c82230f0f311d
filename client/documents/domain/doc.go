// Package domain define contratos e tipos de domínio do envio de documentos
// assinados com limite de requisições por janela.
//
// Este pacote não depende de net/http nem de implementações concretas.
// Serializer, Transport, PermitPool e StatsStore são as fronteiras que a camada
// application orquestra e a camada infra implementa.
package domain
