// Package application contém o caso de uso de submissão de documentos:
// admissão, serialização, envio e liberação do permit.
//
// Ele depende apenas do pacote domain e não conhece net/http.
// Ex.: Dispatcher.Submit(ctx, doc, sign) retorna o corpo da resposta ou o erro
// do transporte, sempre depois de devolver o permit.
package application
