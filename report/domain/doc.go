// Package domain define os tipos e contratos de uma denúncia de anúncio:
// o payload recebido, a denúncia montada e as portas de envio e contagem.
package domain
