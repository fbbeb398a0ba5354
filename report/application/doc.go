// Package application monta a denúncia a partir do payload, entrega pelo relay e
// atualiza o contador. Não conhece net/http.
package application
