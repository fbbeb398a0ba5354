// Package infra contém os adapters concretos das portas de report/domain:
// relay Mailgun (com ritmo via golang.org/x/time/rate), relay de log para
// desenvolvimento e contadores em Redis ou memória.
package infra
